package website

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"git.hoosierptk.dev/forums/forums/src/assets"
	"git.hoosierptk.dev/forums/forums/src/auth"
	"git.hoosierptk.dev/forums/forums/src/config"
	"git.hoosierptk.dev/forums/forums/src/db"
	"git.hoosierptk.dev/forums/forums/src/forums3"
	"git.hoosierptk.dev/forums/forums/src/jobs"
	"git.hoosierptk.dev/forums/forums/src/logging"
	"git.hoosierptk.dev/forums/forums/src/perf"
	"git.hoosierptk.dev/forums/forums/src/templates"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const localS3Root = "./tmp/s3"

var WebsiteCommand = &cobra.Command{
	Use:   "forums",
	Short: "Run the forums website",
	Run: func(cmd *cobra.Command, args []string) {
		defer logging.LogPanics(nil)
		color.New(color.FgHiGreen, color.Bold).Println("Hello, forums!")
		logging.Info().Str("env", string(config.Config.Env)).Msg("Starting up")

		templates.Init()

		var wg sync.WaitGroup

		conn := db.NewConnPool()
		perfCollector, perfCollectorJob := perf.RunPerfCollector(config.Config.Perf.KeepRequests, config.Config.Perf.SlowRequestThreshold)

		// Start background jobs
		wg.Add(1)
		sessionCleanupJob, err := jobs.RunScheduled("auth cleanup", auth.ExpiredSessionCleanup(conn))
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to schedule session cleanup")
		}
		backgroundJobs := jobs.Jobs{
			perfCollectorJob,
			sessionCleanupJob,
			startLocalS3(),
		}

		// Create HTTP server
		wg.Add(1)
		server := http.Server{
			Addr:    config.Config.Addr,
			Handler: NewWebsiteRoutes(conn, perfCollector),
		}
		go func() {
			logging.Info().Str("addr", config.Config.Addr).Msg("Serving the website")
			serverErr := server.ListenAndServe()
			if !errors.Is(serverErr, http.ErrServerClosed) {
				logging.Error().Err(serverErr).Msg("Server shut down unexpectedly")
			}
			// The wg.Done() happens in the shutdown logic below.
		}()

		// Wait for SIGINT in the background and trigger graceful shutdown
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt)
		go func() {
			<-signals // First SIGINT (start shutdown)
			logging.Info().Msg("Shutting down the website")

			const timeout = 10 * time.Second

			go func() {
				logging.Info().Msg("Shutting down background jobs...")
				unfinished := backgroundJobs.CancelAndWait(timeout)
				if len(unfinished) == 0 {
					logging.Info().Msg("Background jobs closed gracefully")
				} else {
					logging.Warn().Strs("Unfinished", unfinished).Msg("Background jobs did not finish by the deadline")
				}
				wg.Done()
			}()

			// Gracefully shut down the HTTP server
			go func() {
				timeoutCtx, cancel := context.WithTimeout(context.Background(), timeout)
				defer cancel()
				err := server.Shutdown(timeoutCtx)
				if err != nil {
					logging.Warn().Err(err).Msg("Server did not shut down gracefully")
				}
				conn.Close()
				wg.Done()
			}()

			<-signals // Second SIGINT (force quit)
			logging.Warn().Strs("Unfinished background jobs", backgroundJobs.ListUnfinished()).Msg("Forcibly killed the website")
			os.Exit(1)
		}()

		// Wait for all of the above to finish, then exit
		wg.Wait()
	},
}

// startLocalS3 runs the local S3 server in development and makes sure the
// assets bucket exists on it. Outside of development it does nothing.
func startLocalS3() *jobs.Job {
	addr := config.Config.S3.DevServerAddr
	if addr == "" || config.Config.IsLive() {
		return jobs.Noop()
	}

	job, err := forums3.Start(addr, localS3Root)
	if err != nil {
		logging.Error().Err(err).Msg("failed to start local S3 server")
		return jobs.Noop()
	}

	go func() {
		ctx := logging.AttachLoggerToContext(&job.Logger, job.Ctx)
		if err := assets.EnsureBucket(ctx, 30*time.Second); err != nil {
			job.Logger.Error().Err(err).Msg("failed to set up the assets bucket")
		}
	}()

	return job
}

func init() {
	s3Command := &cobra.Command{
		Use:   "s3 [storage folder]",
		Short: "Run only the local S3 server",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			root := localS3Root
			if len(args) > 0 {
				root = args[0]
			}

			addr := config.Config.S3.DevServerAddr
			if addr == "" {
				addr = "localhost:9491"
			}

			job, err := forums3.Start(addr, root)
			if err != nil {
				logging.Fatal().Err(err).Msg("failed to start local S3 server")
			}

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, os.Interrupt)
			<-signals
			job.Cancel()
			<-job.Finished()
		},
	}
	WebsiteCommand.AddCommand(s3Command)
}
