package models

// CreateWizardSessionRequest opens a wizard for one employee
type CreateWizardSessionRequest struct {
	EmployeeID     string    `json:"employeeId" validate:"required,max=64"`
	EmployeeName   string    `json:"employeeName" validate:"required,max=255"`
	SavedAddresses []Address `json:"savedAddresses" validate:"omitempty,dive"`
}

// SelectReasonRequest is the reason step's radio selection
type SelectReasonRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// AddressRequest either picks a saved address by index or supplies a new one
type AddressRequest struct {
	SavedIndex *int     `json:"savedIndex,omitempty" validate:"omitempty,gte=0"`
	Address    *Address `json:"address,omitempty"`
}

// StatusUpdateRequest is the admin modal's new status
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required,max=64"`
}

// ConsoleResponse describes an admin console
type ConsoleResponse struct {
	ConsoleID         string `json:"consoleId"`
	SelectedRequestID *int64 `json:"selectedRequestId,omitempty"`
}
