package employee

import "errors"

var (
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrEmployeeHasNoGrade  = errors.New("employee has no salary grade assigned")
	ErrEmployeeHasNoSalary = errors.New("employee salary grade has no monthly salary")
	ErrEmployeeNotPayable  = errors.New("employee is not active")
)
