package bootstrap

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nezhar/voicevault/component"
	"github.com/nezhar/voicevault/config"
	"github.com/nezhar/voicevault/logger"
)

type testConfig struct {
	config.ServiceConfig
}

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   component.Health
	started  bool
	stopped  bool
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	m.started = true
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	m.stopped = true
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) component.Health {
	return m.health
}

func healthy(name string) *mockComponent {
	return &mockComponent{name: name, health: component.Health{Name: name, Status: component.StatusHealthy}}
}

func newTestApp(t *testing.T) *App[*testConfig] {
	t.Helper()
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{
		Name:        "voicevault-worker",
		Version:     "1.0.0",
		Environment: "development",
	}}
	app, err := NewApp(cfg, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "voicevault-worker" {
		t.Errorf("expected name, got %q", app.Name)
	}
	if app.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", app.Version)
	}
	if app.gracefulTimeout != 30*time.Second {
		t.Errorf("expected default 30s, got %v", app.gracefulTimeout)
	}
}

func TestNewAppInitializesGlobalLogger(t *testing.T) {
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "svc"}}
	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Logger != logger.GetGlobalLogger() {
		t.Error("expected app logger to be the global logger")
	}
}

func TestNewAppValidation(t *testing.T) {
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Environment: "production"}}
	if _, err := NewApp(cfg, WithLogger(logger.Nop())); err == nil {
		t.Fatal("expected validation error for missing name")
	}
}

func TestWithGracefulTimeout(t *testing.T) {
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "svc"}}
	app, _ := NewApp(cfg, WithLogger(logger.Nop()), WithGracefulTimeout(5*time.Second))
	if app.gracefulTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", app.gracefulTimeout)
	}
}

func TestRegisterComponentDuplicate(t *testing.T) {
	app := newTestApp(t)
	if err := app.RegisterComponent(healthy("database")); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := app.RegisterComponent(healthy("database")); err == nil {
		t.Error("expected duplicate error")
	}
}

func TestReadyCheck(t *testing.T) {
	tests := []struct {
		name    string
		comps   []*mockComponent
		wantErr bool
	}{
		{"empty", nil, false},
		{"all healthy", []*mockComponent{healthy("database"), healthy("worker")}, false},
		{"degraded", []*mockComponent{healthy("database"), {name: "provider", health: component.Health{Name: "provider", Status: component.StatusDegraded}}}, true},
		{"unhealthy", []*mockComponent{{name: "database", health: component.Health{Name: "database", Status: component.StatusUnhealthy, Message: "ping failed"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			for _, c := range tt.comps {
				app.RegisterComponent(c)
			}
			err := app.ReadyCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("ReadyCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunTaskSuccess(t *testing.T) {
	app := newTestApp(t)
	executed := false
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		executed = true
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	if !executed {
		t.Error("expected task to be executed")
	}
}

func TestRunTaskError(t *testing.T) {
	app := newTestApp(t)
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return fmt.Errorf("task error")
	})
	if err == nil || err.Error() != "task error" {
		t.Errorf("expected 'task error', got %v", err)
	}
}

func TestRunTaskCancellation(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := app.RunTask(ctx, func(taskCtx context.Context) error {
		cancel()
		<-taskCtx.Done()
		return taskCtx.Err()
	})
	if err == nil {
		t.Error("expected error from canceled task")
	}
}

func TestRunTaskHookOrder(t *testing.T) {
	app := newTestApp(t)

	order := []string{}
	record := func(name string) Hook {
		return func(ctx context.Context) error {
			order = append(order, name)
			return nil
		}
	}
	app.OnStart(record("start"))
	app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error {
		order = append(order, "configure")
		return nil
	})
	app.OnReady(record("ready"))
	app.OnStop(record("stop"))

	app.RunTask(context.Background(), func(ctx context.Context) error {
		order = append(order, "task")
		return nil
	})

	expected := []string{"start", "configure", "ready", "task", "stop"}
	if fmt.Sprint(order) != fmt.Sprint(expected) {
		t.Errorf("expected %v, got %v", expected, order)
	}
}

func TestRunTaskStartsAndStopsComponents(t *testing.T) {
	app := newTestApp(t)
	comp := healthy("database")
	app.RegisterComponent(comp)

	app.RunTask(context.Background(), func(ctx context.Context) error { return nil })

	if !comp.started {
		t.Error("expected component to be started")
	}
	if !comp.stopped {
		t.Error("expected component to be stopped after task")
	}
}

func TestStartupFailureStopsStartedComponents(t *testing.T) {
	tests := []struct {
		name  string
		setup func(app *App[*testConfig])
	}{
		{"component start error", func(app *App[*testConfig]) {
			app.RegisterComponent(&mockComponent{name: "worker", startErr: fmt.Errorf("boom")})
		}},
		{"start hook error", func(app *App[*testConfig]) {
			app.OnStart(func(ctx context.Context) error { return fmt.Errorf("hook") })
		}},
		{"configure error", func(app *App[*testConfig]) {
			app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error { return fmt.Errorf("configure") })
		}},
		{"ready hook error", func(app *App[*testConfig]) {
			app.OnReady(func(ctx context.Context) error { return fmt.Errorf("ready") })
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			db := healthy("database")
			app.RegisterComponent(db)
			tt.setup(app)

			ran := false
			err := app.RunTask(context.Background(), func(ctx context.Context) error {
				ran = true
				return nil
			})
			if err == nil {
				t.Fatal("expected startup error")
			}
			if ran {
				t.Error("task must not run after failed startup")
			}
			if !db.stopped {
				t.Error("expected started component to be stopped")
			}
		})
	}
}

func TestRunTaskStopHookError(t *testing.T) {
	app := newTestApp(t)
	app.OnStop(func(ctx context.Context) error { return fmt.Errorf("stop failed") })

	err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil })
	if err == nil {
		t.Error("expected stop hook error to surface")
	}
}

func TestRunReturnsOnContextCancel(t *testing.T) {
	app := newTestApp(t)
	comp := healthy("worker")
	app.RegisterComponent(comp)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if !comp.stopped {
		t.Error("expected component to be stopped")
	}
}

func TestComponentsRegisteredDuringConfigureStart(t *testing.T) {
	app := newTestApp(t)
	db := healthy("database")
	app.RegisterComponent(db)

	worker := healthy("worker")
	app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error {
		if !db.started {
			t.Error("infrastructure must be running before configure")
		}
		return a.RegisterComponent(worker)
	})

	app.RunTask(context.Background(), func(ctx context.Context) error {
		if !worker.started {
			t.Error("expected configured component to be running during the task")
		}
		return nil
	})
	if !worker.stopped {
		t.Error("expected configured component to be stopped")
	}
}
