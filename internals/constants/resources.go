package constants

// ==========================
// ✅ Resource & Action enums
// ==========================
// Nilai literal di bawah adalah wire contract: tersimpan di tabel
// permission_rules dan audit_logs, jangan diubah.

const (
	ResStudents        = "students"
	ResGrades          = "grades"
	ResAttendance      = "attendance"
	ResMedicalRecords  = "medical_records"
	ResSafeguarding    = "safeguarding_logs"
	ResFinancialData   = "financial_data"
	ResReports         = "reports"
	ResStaffManagement = "staff_management"
	ResSystemSettings  = "system_settings"
	ResCommunications  = "communications"
	ResTimetables      = "timetables"
	ResAdmissions      = "admissions"
	ResLibrary         = "library"
	ResTransport       = "transport"
)

const (
	ActRead     = "read"
	ActWrite    = "write"
	ActDelete   = "delete"
	ActApprove  = "approve"
	ActEscalate = "escalate"
)

var AllResources = []string{
	ResStudents, ResGrades, ResAttendance, ResMedicalRecords,
	ResSafeguarding, ResFinancialData, ResReports, ResStaffManagement,
	ResSystemSettings, ResCommunications, ResTimetables, ResAdmissions,
	ResLibrary, ResTransport,
}

var AllActions = []string{ActRead, ActWrite, ActDelete, ActApprove, ActEscalate}

// SensitiveResources: deny dijawab 404 (bukan 403) supaya keberadaan
// record tidak bocor ke caller yang tidak berhak.
var SensitiveResources = map[string]bool{
	ResMedicalRecords: true,
	ResSafeguarding:   true,
}

func IsKnownResource(r string) bool {
	for _, k := range AllResources {
		if k == r {
			return true
		}
	}
	return false
}

func IsKnownAction(a string) bool {
	for _, k := range AllActions {
		if k == a {
			return true
		}
	}
	return false
}
