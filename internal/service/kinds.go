package service

import (
	"log/slog"

	"github.com/sakif/momentkeep/internal/apperror"
	"github.com/sakif/momentkeep/internal/model"
	"github.com/sakif/momentkeep/internal/repository"
)

type (
	JournalService  = ResourceService[model.Journal, model.NewJournal, model.JournalPatch]
	CategoryService = ResourceService[model.Category, model.NewCategory, model.CategoryPatch]
	HabitService    = ResourceService[model.Habit, model.NewHabit, model.HabitPatch]
	TodoService     = ResourceService[model.Todo, model.NewTodo, model.TodoPatch]
)

// =========================================================================
// JOURNALS
// =========================================================================

// NewJournalService requires title, content and user_id. category_id
// defaults to "" (uncategorized), tags to [] and date to the creation time.
func NewJournalService(repo repository.JournalRepository, logger *slog.Logger) *JournalService {
	return newResourceService("journal", repo, buildJournal, checkJournalPatch, logger)
}

func buildJournal(in model.NewJournal) (*model.Journal, error) {
	title, err := required("title", in.Title)
	if err != nil {
		return nil, err
	}
	content, err := required("content", in.Content)
	if err != nil {
		return nil, err
	}
	userID, err := requireOwner(in.UserID)
	if err != nil {
		return nil, err
	}

	j := &model.Journal{
		Title:   title,
		Content: content,
		Tags:    in.Tags,
		UserID:  userID,
	}
	if in.CategoryID != nil {
		j.CategoryID = *in.CategoryID
	}
	if in.Date != nil {
		j.Date = *in.Date
	}
	if j.Tags == nil {
		j.Tags = []string{}
	}
	return j, nil
}

// checkJournalPatch allows tags: null (stored as an empty list) but no
// other nulls.
func checkJournalPatch(p model.JournalPatch) error {
	return firstError(
		notNull("category_id", p.CategoryID),
		notNull("title", p.Title),
		notNull("content", p.Content),
		notNull("date", p.Date),
	)
}

// =========================================================================
// CATEGORIES
// =========================================================================

func NewCategoryService(repo repository.CategoryRepository, logger *slog.Logger) *CategoryService {
	return newResourceService("category", repo, buildCategory, checkCategoryPatch, logger)
}

func buildCategory(in model.NewCategory) (*model.Category, error) {
	name, err := required("name", in.Name)
	if err != nil {
		return nil, err
	}
	typ, err := required("type", in.Type)
	if err != nil {
		return nil, err
	}
	userID, err := requireOwner(in.UserID)
	if err != nil {
		return nil, err
	}
	return &model.Category{Name: name, Type: typ, UserID: userID}, nil
}

func checkCategoryPatch(p model.CategoryPatch) error {
	return firstError(
		notNull("name", p.Name),
		notNull("type", p.Type),
	)
}

// =========================================================================
// HABITS
// =========================================================================

// NewHabitService requires name, frequency, target, start_date and user_id.
// description defaults to ""; end_date may stay null.
func NewHabitService(repo repository.HabitRepository, logger *slog.Logger) *HabitService {
	return newResourceService("habit", repo, buildHabit, checkHabitPatch, logger)
}

func buildHabit(in model.NewHabit) (*model.Habit, error) {
	name, err := required("name", in.Name)
	if err != nil {
		return nil, err
	}
	frequency, err := required("frequency", in.Frequency)
	if err != nil {
		return nil, err
	}
	if in.Target == nil {
		return nil, apperror.MissingField("target")
	}
	startDate, err := required("start_date", in.StartDate)
	if err != nil {
		return nil, err
	}
	userID, err := requireOwner(in.UserID)
	if err != nil {
		return nil, err
	}

	return &model.Habit{
		Name:        name,
		Description: emptyIfNil(in.Description),
		Frequency:   frequency,
		Target:      *in.Target,
		StartDate:   startDate,
		EndDate:     in.EndDate,
		UserID:      userID,
	}, nil
}

func checkHabitPatch(p model.HabitPatch) error {
	return firstError(
		notNull("name", p.Name),
		notNull("frequency", p.Frequency),
		notNull("target", p.Target),
		notNull("start_date", p.StartDate),
	)
}

// =========================================================================
// TODOS
// =========================================================================

// NewTodoService requires title and user_id. description defaults to "",
// is_completed to false and priority to "medium".
func NewTodoService(repo repository.TodoRepository, logger *slog.Logger) *TodoService {
	return newResourceService("todo", repo, buildTodo, checkTodoPatch, logger)
}

func buildTodo(in model.NewTodo) (*model.Todo, error) {
	title, err := required("title", in.Title)
	if err != nil {
		return nil, err
	}
	userID, err := requireOwner(in.UserID)
	if err != nil {
		return nil, err
	}

	priority := model.DefaultPriority
	if in.Priority != nil && *in.Priority != "" {
		priority = *in.Priority
	}

	return &model.Todo{
		Title:       title,
		Description: emptyIfNil(in.Description),
		IsCompleted: in.IsCompleted,
		DueDate:     in.DueDate,
		Priority:    priority,
		UserID:      userID,
	}, nil
}

func checkTodoPatch(p model.TodoPatch) error {
	return firstError(
		notNull("title", p.Title),
		notNull("is_completed", p.IsCompleted),
		notNull("priority", p.Priority),
	)
}
