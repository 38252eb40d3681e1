package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/jwhyun/plywood/internal/builder"
	"github.com/jwhyun/plywood/internal/config"
	"github.com/jwhyun/plywood/internal/domain"
	"github.com/jwhyun/plywood/internal/liveview"
	"github.com/jwhyun/plywood/internal/match"
	"github.com/jwhyun/plywood/internal/obslog"
	"github.com/jwhyun/plywood/internal/service/arena"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "plywood:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := obslog.InitFromEnv(); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = obslog.L().Sync() }()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	deps, err := builder.New(cfg, obslog.L())
	if err != nil {
		return err
	}
	defer deps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ListenAddr != "" {
		srv := liveview.New(cfg.ListenAddr, deps.Arena, deps.Renderer, cfg.BoardSquarePx)
		go func() {
			if err := srv.Run(ctx); err != nil {
				obslog.L().Error("liveview_error", zap.Error(err))
			}
		}()
	}

	cmd := "selfplay"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd = strings.ToLower(strings.TrimSpace(args[0]))
		args = args[1:]
	}

	switch cmd {
	case "selfplay":
		return runSelfplay(ctx, deps.Arena)
	case "play":
		return runPlay(ctx, deps.Arena, args)
	case "resume":
		return runResume(ctx, deps.Arena, args)
	case "history":
		return runHistory(ctx, deps, cfg.HistoryLimit, args)
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printUsage() {
	fmt.Println(`usage: plywood [command]

commands:
  selfplay   engine plays itself from the start position (default)
  play       play against the engine (play [white|black])
  resume     continue a snapshotted match (resume <match-id> [white|black])
  history    list recently archived matches (history [n])
  help       show this message`)
}

// runSelfplay plays the engine against itself until the rules engine
// reports a result.
func runSelfplay(ctx context.Context, a *arena.Arena) error {
	if _, err := a.StartMatch(ctx, domain.ModeSelfplay); err != nil {
		return err
	}
	return selfplayLoop(ctx, a)
}

func selfplayLoop(ctx context.Context, a *arena.Arena) error {
	printState(a)
	for !a.GameOver() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := a.StepEngine(ctx); err != nil {
			return fmt.Errorf("engine move: %w", err)
		}
		printState(a)
	}

	printResult(a)
	return nil
}

// runPlay is the interactive human-vs-engine loop.
func runPlay(ctx context.Context, a *arena.Arena, args []string) error {
	humanColor := nchess.White
	if len(args) > 0 && strings.EqualFold(args[0], "black") {
		humanColor = nchess.Black
	}

	if _, err := a.StartMatch(ctx, domain.ModeHuman); err != nil {
		return err
	}

	if humanColor == nchess.Black {
		if _, err := a.StepEngine(ctx); err != nil {
			return fmt.Errorf("engine move: %w", err)
		}
	}
	return playLoop(ctx, a, humanColor)
}

// runResume reloads a snapshotted match and continues it in its saved mode.
// For a human match the human takes the side to move unless one is given.
func runResume(ctx context.Context, a *arena.Arena, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("resume needs a match id")
	}
	state, err := a.ResumeMatch(ctx, args[0])
	if err != nil {
		return err
	}

	if state.Mode == domain.ModeSelfplay {
		return selfplayLoop(ctx, a)
	}

	sideToMove := nchess.White
	if state.Turn == "black" {
		sideToMove = nchess.Black
	}
	humanColor := sideToMove
	if len(args) > 1 {
		if strings.EqualFold(args[1], "black") {
			humanColor = nchess.Black
		} else if strings.EqualFold(args[1], "white") {
			humanColor = nchess.White
		}
	}
	if sideToMove != humanColor {
		if _, err := a.StepEngine(ctx); err != nil {
			return fmt.Errorf("engine move: %w", err)
		}
	}
	return playLoop(ctx, a, humanColor)
}

func playLoop(ctx context.Context, a *arena.Arena, humanColor nchess.Color) error {
	printState(a)

	scanner := bufio.NewScanner(os.Stdin)
	for !a.GameOver() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Print("your move> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(input) {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "board":
			printState(a)
			continue
		case "moves":
			if state := a.State(); state != nil {
				fmt.Println(strings.Join(state.MovesSAN, " "))
			}
			continue
		case "resign":
			if err := a.Resign(ctx, humanColor); err != nil {
				return err
			}
			printResult(a)
			return nil
		}

		if _, err := a.PlayHuman(ctx, input); err != nil {
			if errors.Is(err, match.ErrInvalidMove) {
				fmt.Println("illegal move, try again (SAN like Nf3 or UCI like g1f3)")
				continue
			}
			return err
		}

		if !a.GameOver() {
			if _, err := a.StepEngine(ctx); err != nil {
				return fmt.Errorf("engine move: %w", err)
			}
		}
		printState(a)
	}

	printResult(a)
	return scanner.Err()
}

// runHistory lists archived matches, newest first.
func runHistory(ctx context.Context, deps *builder.Deps, limit int, args []string) error {
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			limit = n
		}
	}
	records, err := deps.Repo.GetRecentMatches(ctx, limit)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("no archived matches")
		return nil
	}
	for _, rec := range records {
		fmt.Printf("%4d  %-8s  %-9s  %-12s  %3d plies  %s\n",
			rec.ID,
			shortUUID(rec.MatchUUID),
			rec.Result,
			rec.Method,
			len(rec.MovesUCI),
			rec.EndedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func shortUUID(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

func printState(a *arena.Arena) {
	state := a.State()
	board, _ := a.CurrentBoard()
	if state == nil || board == nil {
		return
	}
	turn := nchess.White
	if state.Turn == "black" {
		turn = nchess.Black
	}
	printPosition(board, state.Score, turn)
}

func printResult(a *arena.Arena) {
	state := a.State()
	if state == nil {
		return
	}
	switch match.Status(state.Status) {
	case match.StatusWhiteWins:
		fmt.Println("white wins")
	case match.StatusBlackWins:
		fmt.Println("black wins")
	case match.StatusStalemate:
		fmt.Println("stalemate")
	case match.StatusDraw:
		fmt.Println("draw")
	default:
		fmt.Println("match ongoing")
	}
}
