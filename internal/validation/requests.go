package validation

// RegisterRequest is the body of POST /register. Email uniqueness is checked
// against the user store by the auth service.
type RegisterRequest struct {
	Decoded  `json:"-" validate:"-"`
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Decoded  `json:"-" validate:"-"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

// CreateTaskRequest is the body of POST /tasks.
type CreateTaskRequest struct {
	Decoded     `json:"-" validate:"-"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required,min=10"`
	DueDate     string `json:"due_date" validate:"required,datetime=2006-01-02"`
}

// UpdateTaskRequest is the body of PUT/PATCH /tasks/:id. A nil field was not
// submitted and is left untouched.
type UpdateTaskRequest struct {
	Decoded     `json:"-" validate:"-"`
	Title       *string `json:"title" validate:"omitempty,filled,max=255"`
	Description *string `json:"description" validate:"omitempty,min=10"`
	DueDate     *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Status      *string `json:"status" validate:"omitempty,task_status"`
}
