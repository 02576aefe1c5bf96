// Command voicevault-worker runs one VoiceVault processing stage.
//
//	voicevault-worker --mode download
//	voicevault-worker --mode transcribe --config /etc/voicevault/worker.yml
//
// Run several processes per mode to scale out; claims are leased, so two
// workers never process the same entry at once.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/nezhar/voicevault/bootstrap"
	"github.com/nezhar/voicevault/config"
	"github.com/nezhar/voicevault/process"
	"github.com/nezhar/voicevault/version"
	"github.com/nezhar/voicevault/worker"
)

type options struct {
	mode        string
	configFile  string
	envFile     string
	once        bool
	showVersion bool
}

func main() {
	var opts options
	flags := pflag.NewFlagSet(serviceName, pflag.ExitOnError)
	flags.StringVarP(&opts.mode, "mode", "m", "", "processing stage: download or transcribe (overrides config)")
	flags.StringVarP(&opts.configFile, "config", "c", "", "path to the YAML config file")
	flags.StringVar(&opts.envFile, "env-file", "", "path to a .env file")
	flags.BoolVar(&opts.once, "once", false, "process at most one entry and exit")
	flags.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	_ = flags.Parse(os.Args[1:])

	if opts.showVersion {
		fmt.Println(version.Get().String())
		return
	}
	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg := &workerConfig{}
	loadOpts := []config.LoaderOption{config.WithEnvPrefix("VOICEVAULT")}
	if opts.configFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(opts.configFile))
	}
	if opts.envFile != "" {
		loadOpts = append(loadOpts, config.WithEnvFile(opts.envFile))
	}
	if err := config.LoadConfig(serviceName, cfg, loadOpts...); err != nil {
		return err
	}
	if opts.mode != "" {
		cfg.Mode = opts.mode
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	mode, _ := worker.ParseMode(cfg.Mode)
	app.Logger = app.Logger.WithFields(map[string]interface{}{"mode": mode.String()})
	app.Logger.Info("VoiceVault worker", version.Get().Fields())

	in, err := registerInfra(app)
	if err != nil {
		return err
	}

	app.OnStart(func(ctx context.Context) error {
		return process.LookPath(requiredBinaries(mode, cfg)...)
	})

	var loop *worker.Loop
	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*workerConfig]) error {
		deps, err := buildDeps(mode, a, in)
		if err != nil {
			return err
		}
		probeProvider(ctx, deps, a)

		loop, err = worker.New(mode, cfg.Worker, deps)
		if err != nil {
			return err
		}
		a.Logger.Info("Worker configured", map[string]interface{}{"owner": loop.Owner()})
		if opts.once {
			return nil
		}

		reaper, err := worker.NewReaper(deps.Store, cfg.Worker, deps.Metrics, a.Logger)
		if err != nil {
			return err
		}
		if err := a.RegisterComponent(worker.NewComponent(loop)); err != nil {
			return err
		}
		return a.RegisterComponent(reaper)
	})

	if opts.once {
		return app.RunTask(ctx, func(ctx context.Context) error {
			processed, err := loop.RunOnce(ctx)
			if err != nil {
				return err
			}
			app.Logger.Info("Single run finished", map[string]interface{}{"processed": processed})
			return nil
		})
	}
	return app.Run(ctx)
}
