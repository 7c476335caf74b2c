package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/testutil"
)

func Test_reportApi_attendance(t *testing.T) {
	app := setup(t)
	admin := app.token(t, testutil.Admin())
	juma := app.token(t, testutil.Teacher(testutil.TeacherJuma))
	path := "/v1/reports/attendance?timePeriod=month&month=5&year=2025"

	rec := app.do(http.MethodPost, "/v1/bulk-student-attendance", admin, classSevenBody(t, "2025-05-01", attendance.StatusPresent))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	classSummary := map[string]interface{}{
		"present": 2, "absent": 1, "late": 0, "leave": 0, "total": 3, "percentage": 67,
		"tiers": map[string]int{"good": 0, "average": 0, "poor": 1},
	}
	studentSummary := map[string]interface{}{
		"present": 2, "absent": 1, "late": 0, "leave": 0, "total": 3, "percentage": 67,
		"tiers": map[string]int{"good": 2, "average": 0, "poor": 1},
	}
	emptySummary := map[string]interface{}{
		"present": 0, "absent": 0, "late": 0, "leave": 0, "total": 0, "percentage": 0,
		"tiers": map[string]int{"good": 0, "average": 0, "poor": 0},
	}

	app.run(t, []httpTest{
		{name: "Auth required", path: path + "&reportType=class", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "required params", path: "/v1/reports/attendance", token: admin, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"reportType": "this field is required",
				"timePeriod": "this field is required",
				"month":      "this field is required",
				"year":       "this field is required",
			}),
		},
		{
			name: "student report without class", path: path + "&reportType=student", token: admin, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"classId": "this field is required for student reports"}),
		},
		{
			name: "class grid", path: path + "&reportType=class", token: juma, wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{
				"summary": classSummary,
				"headers": []string{"2025-05-01"},
				"rows": []interface{}{
					map[string]interface{}{"class_id": "class-7", "name": "Form 7", "cells": map[string]interface{}{"2025-05-01": 67}},
				},
			}),
		},
		{
			name: "student grid", path: path + "&reportType=student&classId=class-7", token: juma, wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{
				"summary": studentSummary,
				"headers": []string{"2025-05-01"},
				"rows": []interface{}{
					map[string]interface{}{"student_id": "student-1", "name": "Amani", "class_id": "class-7", "cells": map[string]string{"2025-05-01": "present"}},
					map[string]interface{}{"student_id": "student-2", "name": "Baraka", "class_id": "class-7", "cells": map[string]string{"2025-05-01": "present"}},
					map[string]interface{}{"student_id": "student-3", "name": "Chausiku", "class_id": "class-7", "cells": map[string]string{"2025-05-01": "absent"}},
				},
			}),
		},
		{
			name: "class summary shape", path: path + "&reportType=class&shape=summary", token: admin, wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{
				"summary": classSummary,
				"data": []interface{}{
					map[string]interface{}{
						"id": "class-7", "name": "Form 7", "present": 2, "absent": 1, "late": 0, "leave": 0,
						"total": 3, "percentage": 67, "tier": "poor",
					},
				},
			}),
		},
		{
			name: "empty period", path: "/v1/reports/attendance?reportType=class&timePeriod=month&month=6&year=2025", token: admin,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{"summary": emptySummary, "headers": []string{}, "rows": []interface{}{}}),
		},
		{
			name: "teacher report as teacher", path: path + "&reportType=teacher", token: juma, wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "only admins can view teacher attendance reports"}),
		},
		{
			name: "other class", path: path + "&reportType=student&classId=class-8", token: juma, wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "not allowed to view attendance for this class"}),
		},
		{
			name: "student", path: path + "&reportType=class", token: app.token(t, testutil.Student(testutil.StudentAmani)),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "not allowed to view attendance reports"}),
		},
	})

	app.repo.broken = true
	app.run(t, []httpTest{
		{
			name: "store failure", path: path + "&reportType=class", token: admin, wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{
				"summary": emptySummary, "headers": []string{}, "rows": []interface{}{}, "error": reportFailedMsg,
			}),
		},
	})
}
