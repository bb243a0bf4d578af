package services_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskxp/internal/config"
	"taskxp/internal/models"
	"taskxp/internal/repositories"
	"taskxp/internal/services"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fakeEmail struct {
	sent []string
	err  error
}

func (f *fakeEmail) SendWelcomeEmail(email, _ string) error {
	f.sent = append(f.sent, email)
	return f.err
}

type env struct {
	store      *repositories.Store
	clock      *fakeClock
	email      *fakeEmail
	auth       services.AuthService
	users      services.UserService
	categories services.CategoryService
	tasks      services.TaskService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	db, err := repositories.Open(ctx, config.DatabaseConfig{
		URL:            "sqlite:" + filepath.Join(t.TempDir(), "svc.db"),
		AcquireTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	store := repositories.NewStore(db)
	clock := &fakeClock{t: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)}
	email := &fakeEmail{}
	return &env{
		store:      store,
		clock:      clock,
		email:      email,
		auth:       services.NewAuthService(store.Users, email, "test-secret", time.Hour, 4, clock.Now),
		users:      services.NewUserService(store.Users, store, clock.Now),
		categories: services.NewCategoryService(store.Categories, store, clock.Now),
		tasks:      services.NewTaskService(store.Tasks, store, clock.Now),
	}
}

func (e *env) register(t *testing.T, username string) *models.User {
	t.Helper()
	u, _, err := e.auth.Register(context.Background(), models.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Register %s: %v", username, err)
	}
	return u
}

func intPtr(v int) *int { return &v }

func TestAuth_RegisterAndLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, token, err := e.auth.Register(ctx, models.RegisterRequest{
		Username:  "alice",
		Email:     "  Alice@Example.com ",
		Password:  "secret123",
		FirstName: "Alice",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", u.Email)
	}
	if u.Level != 1 || u.TotalXP != 0 || !u.IsActive || u.Language != "ar" {
		t.Errorf("unexpected defaults %+v", u)
	}
	if len(e.email.sent) != 1 || e.email.sent[0] != "alice@example.com" {
		t.Errorf("expected welcome email, got %v", e.email.sent)
	}

	claims, err := e.auth.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != u.ID || claims.Email != u.Email {
		t.Errorf("unexpected claims %+v", claims)
	}

	e.clock.Advance(time.Minute)
	logged, _, err := e.auth.Login(ctx, models.LoginRequest{Email: "ALICE@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if logged.LastLoginAt == nil || !logged.LastLoginAt.Equal(e.clock.Now()) {
		t.Errorf("expected LastLoginAt to be set, got %v", logged.LastLoginAt)
	}
	stored, _ := e.store.Users.GetByID(ctx, u.ID)
	if stored.LastLoginAt == nil {
		t.Error("expected LastLoginAt persisted")
	}
	if !stored.LastActivity.Equal(u.LastActivity) {
		t.Error("login must not touch LastActivity")
	}
}

func TestAuth_RegisterDuplicate(t *testing.T) {
	e := newEnv(t)
	e.register(t, "bob")

	_, _, err := e.auth.Register(context.Background(), models.RegisterRequest{
		Username: "bob", Email: "other@example.com", Password: "secret123",
	})
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestAuth_WelcomeEmailFailureDoesNotFailRegistration(t *testing.T) {
	e := newEnv(t)
	e.email.err = errors.New("smtp down")
	if _, _, err := e.auth.Register(context.Background(), models.RegisterRequest{
		Username: "carl", Email: "carl@example.com", Password: "secret123",
	}); err != nil {
		t.Fatalf("expected success despite email failure, got %v", err)
	}
}

func TestAuth_LoginRejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "dora")

	if _, _, err := e.auth.Login(ctx, models.LoginRequest{Email: "dora@example.com", Password: "wrong"}); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("wrong password: expected ErrUnauthorized, got %v", err)
	}
	if _, _, err := e.auth.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "secret123"}); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("unknown email: expected ErrUnauthorized, got %v", err)
	}

	u.IsActive = false
	if err := e.store.Users.Update(ctx, u); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, _, err := e.auth.Login(ctx, models.LoginRequest{Email: "dora@example.com", Password: "secret123"}); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("inactive user: expected ErrUnauthorized, got %v", err)
	}
}

func TestAuth_ParseTokenRejectsExpiredAndForeign(t *testing.T) {
	e := newEnv(t)
	_, token, err := e.auth.Register(context.Background(), models.RegisterRequest{
		Username: "eve", Email: "eve@example.com", Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	other := services.NewAuthService(e.store.Users, nil, "another-secret", time.Hour, 4, e.clock.Now)
	if _, err := other.ParseToken(token); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("expected foreign secret to be rejected, got %v", err)
	}

	e.clock.Advance(2 * time.Hour)
	if _, err := e.auth.ParseToken(token); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
	if _, err := e.auth.ParseToken("not-a-jwt"); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("expected garbage to be rejected, got %v", err)
	}
}

func TestTaskService_CreateComputesReward(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "finn")

	due := e.clock.Now().Add(48 * time.Hour)
	task, err := e.tasks.Create(ctx, u.ID, models.TaskInput{
		Title:             "  ship release  ",
		Priority:          models.PriorityUrgent,
		EstimatedDuration: intPtr(90),
		DueDate:           &due,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.XPReward != 45 {
		t.Fatalf("expected 45 XP, got %d", task.XPReward)
	}
	if task.Title != "ship release" || task.Status != models.StatusPending {
		t.Fatalf("unexpected task %+v", task)
	}

	plain, err := e.tasks.Create(ctx, u.ID, models.TaskInput{Title: "defaults"})
	if err != nil {
		t.Fatalf("Create defaults: %v", err)
	}
	if plain.Priority != models.PriorityMedium || plain.XPReward != 15 {
		t.Fatalf("expected medium/15, got %s/%d", plain.Priority, plain.XPReward)
	}
}

func TestTaskService_CreateRejectsForeignCategory(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "gus")
	intruder := e.register(t, "hal")

	cat, err := e.categories.Create(ctx, owner.ID, models.CategoryInput{Name: "Private"})
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}

	_, err = e.tasks.Create(ctx, intruder.ID, models.TaskInput{Title: "sneaky", CategoryID: &cat.ID})
	var ve *models.ValidationError
	if !errors.As(err, &ve) || ve.Fields[0].Field != "categoryId" {
		t.Fatalf("expected categoryId validation error, got %v", err)
	}

	ok, err := e.tasks.Create(ctx, owner.ID, models.TaskInput{Title: "fine", CategoryID: &cat.ID})
	if err != nil {
		t.Fatalf("owner create: %v", err)
	}
	if ok.Category == nil || ok.Category.Name != "Private" {
		t.Fatalf("expected category summary on task, got %+v", ok.Category)
	}
}

func TestTaskService_CompletionAwardsOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "iris")

	task, err := e.tasks.Create(ctx, u.ID, models.TaskInput{Title: "write tests", Priority: models.PriorityHigh})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	completed := models.StatusCompleted
	res, err := e.tasks.Update(ctx, u.ID, task.ID, models.TaskPatch{Status: &completed})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if res.Progress == nil || res.Progress.TotalXP != 20 {
		t.Fatalf("expected 20 XP awarded, got %+v", res.Progress)
	}
	if res.Task.CompletedAt == nil || !res.Task.CompletedAt.Equal(e.clock.Now()) {
		t.Fatalf("expected CompletedAt stamped, got %v", res.Task.CompletedAt)
	}
	firstCompletion := *res.Task.CompletedAt

	e.clock.Advance(time.Hour)
	title := "write more tests"
	res, err = e.tasks.Update(ctx, u.ID, task.ID, models.TaskPatch{Title: &title, Status: &completed})
	if err != nil {
		t.Fatalf("second Update: %v", err)
	}
	if res.Progress != nil {
		t.Fatalf("expected no second award, got %+v", res.Progress)
	}
	if !res.Task.CompletedAt.Equal(firstCompletion) {
		t.Fatalf("CompletedAt must not move, got %v", res.Task.CompletedAt)
	}

	stored, _ := e.store.Users.GetByID(ctx, u.ID)
	if stored.TotalXP != 20 {
		t.Fatalf("expected user XP 20, got %d", stored.TotalXP)
	}
}

func TestTaskService_CompleteEndpointSemantics(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "jade")
	task, _ := e.tasks.Create(ctx, u.ID, models.TaskInput{Title: "t", Priority: models.PriorityLow})

	res, err := e.tasks.Complete(ctx, u.ID, task.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Progress == nil || res.Progress.TotalXP != 10 {
		t.Fatalf("expected 10 XP, got %+v", res.Progress)
	}

	e.clock.Advance(time.Minute)
	res, err = e.tasks.Complete(ctx, u.ID, task.ID)
	if err != nil {
		t.Fatalf("second Complete: %v", err)
	}
	if res.Progress != nil {
		t.Fatal("completing a completed task must not award XP")
	}
	if !res.Task.CompletedAt.Equal(e.clock.Now()) {
		t.Fatalf("explicit completion overwrites CompletedAt, got %v", res.Task.CompletedAt)
	}

	pending := models.StatusPending
	if _, err := e.tasks.Update(ctx, u.ID, task.ID, models.TaskPatch{Status: &pending}); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	res, err = e.tasks.Complete(ctx, u.ID, task.ID)
	if err != nil {
		t.Fatalf("re-complete: %v", err)
	}
	if res.Progress == nil || res.Progress.TotalXP != 20 {
		t.Fatalf("re-entering completed is a new transition, got %+v", res.Progress)
	}
}

func TestTaskService_LevelUpAndStreak(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "kai")

	u.TotalXP = 990
	if err := e.store.Users.Update(ctx, u); err != nil {
		t.Fatalf("seed xp: %v", err)
	}

	first, _ := e.tasks.Create(ctx, u.ID, models.TaskInput{Title: "day one", Priority: models.PriorityLow})
	res, err := e.tasks.Complete(ctx, u.ID, first.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Progress.Level != 2 || !res.Progress.LeveledUp || res.Progress.XPForNextLevel != 2000 {
		t.Fatalf("expected level 2 reached, got %+v", res.Progress)
	}
	if res.Progress.StreakDays != 0 {
		t.Fatalf("same-day activity keeps the streak, got %d", res.Progress.StreakDays)
	}

	e.clock.Advance(24 * time.Hour)
	second, _ := e.tasks.Create(ctx, u.ID, models.TaskInput{Title: "day two", Priority: models.PriorityLow})
	res, _ = e.tasks.Complete(ctx, u.ID, second.ID)
	if res.Progress.StreakDays != 1 || res.Progress.LeveledUp {
		t.Fatalf("expected streak 1 without level up, got %+v", res.Progress)
	}

	e.clock.Advance(72 * time.Hour)
	third, _ := e.tasks.Create(ctx, u.ID, models.TaskInput{Title: "after a break", Priority: models.PriorityLow})
	res, _ = e.tasks.Complete(ctx, u.ID, third.ID)
	if res.Progress.StreakDays != 1 {
		t.Fatalf("expected streak reset to 1, got %d", res.Progress.StreakDays)
	}
}

func TestTaskService_ForeignTaskNotFound(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "lena")
	other := e.register(t, "milo")
	task, _ := e.tasks.Create(ctx, owner.ID, models.TaskInput{Title: "mine"})

	if _, err := e.tasks.Get(ctx, other.ID, task.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("Get: expected ErrNotFound, got %v", err)
	}
	if _, err := e.tasks.Complete(ctx, other.ID, task.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("Complete: expected ErrNotFound, got %v", err)
	}
	if err := e.tasks.Delete(ctx, other.ID, task.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("Delete: expected ErrNotFound, got %v", err)
	}
}

func TestTaskService_RecalculateXP(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "nora")

	due := e.clock.Now().Add(time.Hour)
	task, _ := e.tasks.Create(ctx, u.ID, models.TaskInput{Title: "t", Priority: models.PriorityHigh, DueDate: &due})
	if task.XPReward != 20 {
		t.Fatalf("expected 20 XP at creation, got %d", task.XPReward)
	}

	e.clock.Advance(2 * time.Hour)
	got, err := e.tasks.RecalculateXP(ctx, u.ID, task.ID)
	if err != nil {
		t.Fatalf("RecalculateXP: %v", err)
	}
	if got.XPReward != 15 {
		t.Fatalf("expected overdue penalty to apply, got %d", got.XPReward)
	}
}

func TestTaskService_UpdateValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "otto")
	task, _ := e.tasks.Create(ctx, u.ID, models.TaskInput{Title: "t"})

	blank := "   "
	_, err := e.tasks.Update(ctx, u.ID, task.ID, models.TaskPatch{Title: &blank})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected ErrValidation for blank title, got %v", err)
	}

	missing := int64(4242)
	_, err = e.tasks.Update(ctx, u.ID, task.ID, models.TaskPatch{CategoryID: &missing})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown category, got %v", err)
	}
}

func TestTaskService_Overview(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "pia")
	past := e.clock.Now().Add(-time.Hour)

	a, _ := e.tasks.Create(ctx, u.ID, models.TaskInput{Title: "a", DueDate: &past})
	e.tasks.Create(ctx, u.ID, models.TaskInput{Title: "b"})
	e.tasks.Complete(ctx, u.ID, a.ID)

	o, err := e.tasks.Overview(ctx, u.ID)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if o.Total != 2 || o.Completed != 1 || o.Pending != 1 || o.Overdue != 0 {
		t.Fatalf("unexpected overview %+v", o)
	}
}

func TestCategoryService(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "quinn")

	if _, err := e.categories.Create(ctx, u.ID, models.CategoryInput{Name: "Bad", Color: "blue"}); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected ErrValidation for bad color, got %v", err)
	}

	c, err := e.categories.Create(ctx, u.ID, models.CategoryInput{Name: " Work "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Name != "Work" || c.Color != models.DefaultCategoryColor || c.Icon != models.DefaultCategoryIcon {
		t.Fatalf("unexpected defaults %+v", c)
	}

	color := "#10b981"
	updated, err := e.categories.Update(ctx, u.ID, c.ID, models.CategoryPatch{Color: &color})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Color != "#10b981" || updated.Name != "Work" {
		t.Fatalf("unexpected update %+v", updated)
	}

	task, _ := e.tasks.Create(ctx, u.ID, models.TaskInput{Title: "t", CategoryID: &c.ID})
	if err := e.categories.Delete(ctx, u.ID, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := e.tasks.Get(ctx, u.ID, task.ID)
	if err != nil || got.CategoryID != nil {
		t.Fatalf("expected detached task, got %v %v", got, err)
	}
	if err := e.categories.Delete(ctx, u.ID, c.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestUserService_ProfileAndDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "rita")

	bad := "Mars/Olympus"
	if _, err := e.users.UpdateProfile(ctx, u.ID, models.ProfileUpdate{Timezone: &bad}); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown timezone, got %v", err)
	}

	tz, first := "UTC", "Rita"
	updated, err := e.users.UpdateProfile(ctx, u.ID, models.ProfileUpdate{Timezone: &tz, FirstName: &first})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.FullName() != "Rita" {
		t.Fatalf("expected first name set, got %q", updated.FullName())
	}

	_, progress, err := e.users.GetProfile(ctx, u.ID)
	if err != nil || progress.Level != 1 || progress.XPForNextLevel != 1000 {
		t.Fatalf("unexpected progress %+v %v", progress, err)
	}

	c, _ := e.categories.Create(ctx, u.ID, models.CategoryInput{Name: "c"})
	e.tasks.Create(ctx, u.ID, models.TaskInput{Title: "t", CategoryID: &c.ID})

	if err := e.users.DeleteAccount(ctx, u.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if _, _, err := e.users.GetProfile(ctx, u.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if cats, _ := e.categories.List(ctx, u.ID); len(cats) != 0 {
		t.Fatalf("expected categories removed, got %d", len(cats))
	}
}

func TestValidation_CountsCharactersNotBytes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "samir")

	if _, err := e.tasks.Create(ctx, u.ID, models.TaskInput{Title: strings.Repeat("م", 255)}); err != nil {
		t.Fatalf("255-character title rejected: %v", err)
	}
	if _, err := e.tasks.Create(ctx, u.ID, models.TaskInput{Title: strings.Repeat("م", 256)}); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected ErrValidation for 256 characters, got %v", err)
	}
	if _, err := e.tasks.Create(ctx, u.ID, models.TaskInput{Title: "t", Description: strings.Repeat("ж", 1000)}); err != nil {
		t.Fatalf("1000-character description rejected: %v", err)
	}

	c, err := e.categories.Create(ctx, u.ID, models.CategoryInput{Name: strings.Repeat("ع", 100), Icon: strings.Repeat("📁", 50)})
	if err != nil {
		t.Fatalf("100-character name rejected: %v", err)
	}
	long := strings.Repeat("ع", 101)
	if _, err := e.categories.Update(ctx, u.ID, c.ID, models.CategoryPatch{Name: &long}); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected ErrValidation for 101 characters, got %v", err)
	}
}

func TestCreate_AfterAccountDeletedIsUnauthorized(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "tomas")

	if err := e.users.DeleteAccount(ctx, u.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if _, err := e.tasks.Create(ctx, u.ID, models.TaskInput{Title: "ghost"}); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized creating a task, got %v", err)
	}
	if _, err := e.categories.Create(ctx, u.ID, models.CategoryInput{Name: "ghost"}); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized creating a category, got %v", err)
	}
}
