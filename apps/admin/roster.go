package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/school"
)

// importRoster upserts the roster held in the JSON file at path.
// Entities without a school_id inherit the roster's.
func (cli *commandLine) importRoster(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading roster file")
	}

	var roster school.Roster
	if err = json.Unmarshal(data, &roster); err != nil {
		return errors.Wrap(err, "decoding roster file")
	}
	if err = normalizeRoster(&roster); err != nil {
		return err
	}

	if err = cli.schools.SaveRoster(context.Background(), roster); err != nil {
		return errors.Wrapf(err, "saving roster of %s", roster.SchoolID)
	}
	_, err = fmt.Fprintf(
		cli.out,
		"roster of %s saved: %d classes, %d students, %d teachers\n",
		roster.SchoolID, len(roster.Classes), len(roster.Students), len(roster.Teachers),
	)
	return err
}

func normalizeRoster(roster *school.Roster) error {
	roster.SchoolID = core.CleanString(roster.SchoolID)
	if roster.SchoolID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "school_id", Error: "this field is required"})
	}

	fix := func(field, id string, schoolID *string) error {
		if id == "" {
			return core.NewValidationError(nil, core.FieldError{Field: field + ".id", Error: "this field is required"})
		}
		if *schoolID == "" {
			*schoolID = roster.SchoolID
		} else if *schoolID != roster.SchoolID {
			return core.NewValidationError(nil, core.FieldError{
				Field: field + ".school_id",
				Error: fmt.Sprintf("%s belongs to another school", id),
			})
		}
		return nil
	}
	for i := range roster.Classes {
		if err := fix("classes", roster.Classes[i].ID, &roster.Classes[i].SchoolID); err != nil {
			return err
		}
	}
	for i := range roster.Students {
		if err := fix("students", roster.Students[i].ID, &roster.Students[i].SchoolID); err != nil {
			return err
		}
	}
	for i := range roster.Teachers {
		if err := fix("teachers", roster.Teachers[i].ID, &roster.Teachers[i].SchoolID); err != nil {
			return err
		}
	}
	return nil
}
