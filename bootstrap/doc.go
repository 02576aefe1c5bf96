// Package bootstrap runs the worker process lifecycle: validate config,
// start components, wait for a signal or finish a task, then stop
// components in reverse order within a grace period.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(dbComponent)
//	app.RegisterComponent(component.NewBackground("worker", loop.Run))
//	err = app.Run(ctx)
package bootstrap
