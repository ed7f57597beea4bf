package schedule

// ScheduleClassifier supplies the expected sessions of an employee type
type ScheduleClassifier interface {
	ScheduleFor(employeeType EmployeeType) SessionSchedule
}
