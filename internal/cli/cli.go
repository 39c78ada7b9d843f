// ============================================================================
// Drone Dispatch CLI - Command Line Interface
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: Cobra command tree around the planner
//
// Command Structure:
//   dispatch                       # Root command
//   ├── solve                      # Plan a problem file
//   │   ├── --input, -i            # Problem file (required)
//   │   ├── --strategy, -s         # greedy | hill-climbing | annealing |
//   │   │                          #   iterated-annealing | genetic
//   │   ├── --builder, -b          # greedy | random | naive
//   │   ├── --cooling              # annealing schedule
//   │   ├── --seed                 # random seed
//   │   ├── --output, -o           # command file, "-" for stdout
//   │   ├── --summary              # JSON run summary
//   │   └── --remote               # plan on a running `serve` instance
//   ├── info                       # Describe a problem file
//   ├── serve                      # gRPC planner service + /metrics
//   ├── show                       # Print a saved run summary
//   │   └── --commands             # Verify a command file against it
//   ├── --config, -c               # Config file (default configs/default.yaml)
//   └── --version
//
// Examples:
//   ./dispatch solve -i busy_day.in -s annealing --cooling logarithmic
//   ./dispatch solve -i busy_day.in -s genetic -b random --summary run.json
//   ./dispatch serve --port 50051
//   ./dispatch solve -i busy_day.in --remote localhost:50051
//   ./dispatch show run.json --commands submission.out
//
// Signal Handling:
//   solve and serve stop on SIGINT or SIGTERM. An interrupted solve
//   returns the context error; serve drains in-flight calls first.
//
// ============================================================================

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/ChuLiYu/drone-dispatch/internal/config"
	"github.com/ChuLiYu/drone-dispatch/internal/controller"
	"github.com/ChuLiYu/drone-dispatch/internal/metrics"
	"github.com/ChuLiYu/drone-dispatch/internal/parser"
	"github.com/ChuLiYu/drone-dispatch/internal/report"
	"github.com/ChuLiYu/drone-dispatch/internal/search"
	"github.com/ChuLiYu/drone-dispatch/internal/server"
	"github.com/ChuLiYu/drone-dispatch/pkg/types"
)

var log = slog.Default()

var configFile string

func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Drone Dispatch: delivery schedule optimizer",
		Long: `Drone Dispatch plans drone deliveries from warehouses to orders with:
- greedy, random and naive schedule builders
- hill climbing, simulated annealing and a genetic algorithm
- a gRPC planner service
- Prometheus metrics`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultPath, "config file path")

	rootCmd.AddCommand(buildSolveCommand())
	rootCmd.AddCommand(buildInfoCommand())
	rootCmd.AddCommand(buildServeCommand())
	rootCmd.AddCommand(buildShowCommand())

	return rootCmd
}

// ============================================================================
// solve
// ============================================================================

type solveOptions struct {
	input    string
	strategy string
	builder  string
	cooling  string
	seed     int64
	output   string
	summary  string
	remote   string
}

func buildSolveCommand() *cobra.Command {
	var opts solveOptions

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Plan deliveries for a problem file",
		Long:  "Build an initial schedule, improve it with the chosen strategy and write the drone commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runSolve(ctx, cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "problem file")
	cmd.Flags().StringVarP(&opts.strategy, "strategy", "s", "", fmt.Sprintf("search strategy %v", search.Strategies))
	cmd.Flags().StringVarP(&opts.builder, "builder", "b", "", fmt.Sprintf("initial schedule builder %v", config.Builders))
	cmd.Flags().StringVar(&opts.cooling, "cooling", "", fmt.Sprintf("annealing cooling schedule %v", search.CoolingNames()))
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (default from config)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "command file, - for stdout (default from config)")
	cmd.Flags().StringVar(&opts.summary, "summary", "", "write a JSON run summary to this path")
	cmd.Flags().StringVar(&opts.remote, "remote", "", "planner address (e.g. localhost:50051) for remote solving")
	cmd.MarkFlagRequired("input")

	return cmd
}

func runSolve(ctx context.Context, cmd *cobra.Command, opts solveOptions) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.cooling != "" {
		cfg.Annealing.Cooling = opts.cooling
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if opts.output == "" {
		opts.output = cfg.Output.Commands
	}
	if opts.summary == "" {
		opts.summary = cfg.Output.Summary
	}
	hasSeed := cmd.Flags().Changed("seed")

	var (
		summary  report.Summary
		commands []string
		writer   = report.NewWriter()
	)

	if opts.remote != "" {
		summary, commands, err = solveRemote(ctx, opts, hasSeed)
		if err != nil {
			return err
		}
	} else {
		problem, err := parser.ParseFile(opts.input)
		if err != nil {
			return err
		}

		planner := controller.NewPlanner(cfg, nil)
		res, err := planner.Run(ctx, problem, controller.Request{
			Strategy: opts.strategy,
			Builder:  opts.builder,
			Seed:     opts.seed,
			HasSeed:  hasSeed,
			Source:   opts.input,
		})
		if err != nil {
			return fmt.Errorf("solve %s: %w", opts.input, err)
		}
		summary = res.Summary()
		commands = res.Schedule.Commands()
	}

	switch opts.output {
	case "-":
		for _, line := range commands {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
	default:
		if err := writer.WriteLines(opts.output, commands); err != nil {
			return fmt.Errorf("failed to write commands: %w", err)
		}
		log.Info("Commands written", "path", opts.output, "actions", len(commands)-1)
	}

	if opts.summary != "" {
		if err := writer.WriteSummary(opts.summary, summary); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
		log.Info("Summary written", "path", opts.summary)
	}

	if opts.output != "-" {
		printSummary(cmd.OutOrStdout(), summary)
	}
	return nil
}

func solveRemote(ctx context.Context, opts solveOptions, hasSeed bool) (report.Summary, []string, error) {
	data, err := os.ReadFile(opts.input)
	if err != nil {
		return report.Summary{}, nil, fmt.Errorf("failed to read problem file: %w", err)
	}

	client, err := server.Dial(opts.remote)
	if err != nil {
		return report.Summary{}, nil, err
	}
	defer client.Close()

	log.Info("Solving remotely", "remote", opts.remote, "input", opts.input)
	res, err := client.Solve(ctx, server.SolveRequest{
		Problem:  string(data),
		Strategy: opts.strategy,
		Builder:  opts.builder,
		Seed:     opts.seed,
		HasSeed:  hasSeed,
		Commands: true,
	})
	if err != nil {
		return report.Summary{}, nil, fmt.Errorf("remote solve: %w", err)
	}
	res.Summary.Problem = opts.input
	return res.Summary, res.Commands, nil
}

// ============================================================================
// info
// ============================================================================

func buildInfoCommand() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Describe a problem file",
		RunE: func(cmd *cobra.Command, args []string) error {
			problem, err := parser.ParseFile(input)
			if err != nil {
				return err
			}
			printProblem(cmd.OutOrStdout(), input, problem)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "problem file")
	cmd.MarkFlagRequired("input")
	return cmd
}

func printProblem(w io.Writer, path string, p *types.Problem) {
	units := func(spots []*types.Spot) (total int) {
		for _, s := range spots {
			for _, q := range s.Products {
				total += q
			}
		}
		return total
	}

	fmt.Fprintf(w, "Problem:     %s\n", path)
	fmt.Fprintf(w, "Grid:        %d x %d\n", p.Rows, p.Cols)
	fmt.Fprintf(w, "Drones:      %d (payload %d)\n", p.Drones, p.Payload)
	fmt.Fprintf(w, "Turns:       %d\n", p.Turns)
	fmt.Fprintf(w, "Products:    %d\n", len(p.Products))
	fmt.Fprintf(w, "Warehouses:  %d (%d units in stock)\n", len(p.Warehouses), units(p.Warehouses))
	fmt.Fprintf(w, "Orders:      %d (%d units requested)\n", len(p.Orders), units(p.Orders))
	fmt.Fprintf(w, "Depot:       %s\n", p.Depot())
}

// ============================================================================
// serve
// ============================================================================

func buildServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gRPC planner service",
		Long:  "Serve dispatch.v1.Planner and, when enabled, Prometheus metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default from config)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	var recorder controller.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.NewCollector(nil)
		go func() {
			log.Info("Starting metrics server", "port", cfg.Metrics.Port)
			if err := metrics.StartServer(cfg.Metrics.Port); err != nil {
				log.Error("Metrics server error", "error", err)
			}
		}()
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", cfg.Server.Port, err)
	}

	grpcServer := grpc.NewServer()
	srv := server.NewServer(controller.NewPlanner(cfg, recorder))
	server.Register(grpcServer, srv)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(lis)
	}()
	log.Info("gRPC server listening", "addr", lis.Addr().String())

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("gRPC server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Received shutdown signal, stopping gracefully...")
	srv.Shutdown()

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(10 * time.Second):
		grpcServer.Stop()
	}

	log.Info("Server stopped")
	return nil
}

// ============================================================================
// show
// ============================================================================

func buildShowCommand() *cobra.Command {
	var commands string

	cmd := &cobra.Command{
		Use:   "show <summary.json>",
		Short: "Print a saved run summary",
		Long:  "Print a saved run summary and optionally check that a command file belongs to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			writer := report.NewWriter()
			s, err := writer.LoadSummary(args[0])
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), s)

			if commands != "" {
				if err := writer.VerifyCommands(commands, s); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Verified:    %s\n", commands)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&commands, "commands", "", "command file to verify against the summary checksum")
	return cmd
}

func printSummary(w io.Writer, s report.Summary) {
	fmt.Fprintf(w, "Run:         %s\n", s.RunID)
	if s.Problem != "" {
		fmt.Fprintf(w, "Problem:     %s\n", s.Problem)
	}
	fmt.Fprintf(w, "Strategy:    %s (builder %s, seed %d)\n", s.Strategy, s.Builder, s.Seed)
	fmt.Fprintf(w, "Score:       %.2f\n", s.Score)
	fmt.Fprintf(w, "Penalty:     %d\n", s.Penalty)
	fmt.Fprintf(w, "Fitness:     %.2f\n", s.Fitness)
	fmt.Fprintf(w, "Orders:      %d/%d completed\n", s.CompletedOrders, s.Orders)
	fmt.Fprintf(w, "Actions:     %d over %d drones\n", s.Actions, s.DronesUsed)
	if s.Iterations > 0 {
		fmt.Fprintf(w, "Search:      %d iterations, %d accepted, %d improvements\n", s.Iterations, s.Accepted, s.Improvements)
	}
	if s.DeadEnd {
		fmt.Fprintln(w, "Warning:     builder stopped before every order was complete")
	}
	fmt.Fprintf(w, "Elapsed:     %dms\n", s.ElapsedMs)
}
