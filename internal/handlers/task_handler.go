package handlers

import (
	"fmt"

	"taskapi/internal/models"
	"taskapi/internal/services"
	"taskapi/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// TaskHandler handles HTTP requests for tasks.
type TaskHandler struct {
	service *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{
		service: service,
	}
}

// Routes returns the task rows of the routing table. Reads are public.
func (h *TaskHandler) Routes() []Route {
	return []Route{
		{Method: fiber.MethodGet, Path: "/tasks", Auth: Public, Handler: h.HandleListTasks},
		{Method: fiber.MethodGet, Path: "/tasks/:id", Auth: Public, Handler: h.HandleGetTask},
		{Method: fiber.MethodPost, Path: "/tasks", Auth: Authenticated, Handler: h.HandleCreateTask},
		{Method: fiber.MethodPut, Path: "/tasks/:id", Auth: Authenticated, Handler: h.HandleUpdateTask},
		{Method: fiber.MethodPatch, Path: "/tasks/:id", Auth: Authenticated, Handler: h.HandleUpdateTask},
		{Method: fiber.MethodDelete, Path: "/tasks/:id", Auth: Authenticated, Handler: h.HandleDeleteTask},
	}
}

// TaskPage is the JSON form of one page of tasks.
type TaskPage struct {
	CurrentPage  int           `json:"current_page"`
	Data         []models.Task `json:"data"`
	FirstPageURL string        `json:"first_page_url"`
	From         *int          `json:"from"`
	NextPageURL  *string       `json:"next_page_url"`
	Path         string        `json:"path"`
	PerPage      int           `json:"per_page"`
	PrevPageURL  *string       `json:"prev_page_url"`
	To           *int          `json:"to"`
	Total        int64         `json:"total"`
}

func newTaskPage(c *fiber.Ctx, page *services.TaskPage) TaskPage {
	path := c.BaseURL() + c.Path()
	pageURL := func(n int) string {
		return fmt.Sprintf("%s?page=%d", path, n)
	}

	out := TaskPage{
		CurrentPage:  page.Page,
		Data:         page.Tasks,
		FirstPageURL: pageURL(1),
		Path:         path,
		PerPage:      page.PerPage,
		Total:        page.Total,
	}
	if n := len(page.Tasks); n > 0 {
		from, to := page.Offset()+1, page.Offset()+n
		out.From, out.To = &from, &to
	}
	if page.Page > 1 {
		prev := pageURL(page.Page - 1)
		out.PrevPageURL = &prev
	}
	if page.HasMore() {
		next := pageURL(page.Page + 1)
		out.NextPageURL = &next
	}
	return out
}

// HandleListTasks returns a page of all tasks.
func (h *TaskHandler) HandleListTasks(c *fiber.Ctx) error {
	page, err := h.service.List(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("per_page", 0))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, MessageSuccess, newTaskPage(c, page))
}

// HandleGetTask retrieves a single task by its ID.
func (h *TaskHandler) HandleGetTask(c *fiber.Ctx) error {
	id, ok := taskID(c)
	if !ok {
		return Fail(c, fiber.StatusNotFound, MessageNotFound)
	}

	task, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, MessageSuccess, task)
}

// HandleCreateTask creates a task owned by the authenticated user.
func (h *TaskHandler) HandleCreateTask(c *fiber.Ctx) error {
	var req validation.CreateTaskRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	task, err := h.service.Create(c.UserContext(), actingUserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusCreated, "New task created successfully", task)
}

// HandleUpdateTask applies a partial update to a task the caller owns.
func (h *TaskHandler) HandleUpdateTask(c *fiber.Ctx) error {
	id, ok := taskID(c)
	if !ok {
		return Fail(c, fiber.StatusNotFound, MessageNotFound)
	}

	var req validation.UpdateTaskRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	task, err := h.service.Update(c.UserContext(), actingUserID(c), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "Task was updated successfully", task)
}

// HandleDeleteTask deletes a task the caller owns and echoes it back.
func (h *TaskHandler) HandleDeleteTask(c *fiber.Ctx) error {
	id, ok := taskID(c)
	if !ok {
		return Fail(c, fiber.StatusNotFound, MessageNotFound)
	}

	task, err := h.service.Delete(c.UserContext(), actingUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, MessageSuccess, task)
}

// taskID parses the :id path parameter. Non-numeric or non-positive ids
// cannot name a task.
func taskID(c *fiber.Ctx) (uint, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}
