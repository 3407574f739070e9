package cli

import (
	"context"
	"fmt"

	"github.com/ChainStarter/plutus3-dca/internal/config"
	"github.com/ChainStarter/plutus3-dca/internal/custody"
	"github.com/ChainStarter/plutus3-dca/internal/engine"
	"github.com/ChainStarter/plutus3-dca/internal/guard"
	"github.com/ChainStarter/plutus3-dca/internal/ledger"
	"github.com/ChainStarter/plutus3-dca/internal/oracle"
	"github.com/ChainStarter/plutus3-dca/internal/random"
	"github.com/ChainStarter/plutus3-dca/internal/store"
	"github.com/ChainStarter/plutus3-dca/internal/swap"
)

// app is the wired engine plus the resources a command needs around it.
//
// The vault is in-process and starts empty every invocation: paper trading
// treats the account wallet as unlimited, so create funds it on demand.
// Plans, seeds and the journal live in SQLite and survive restarts; the
// sequencer resumes past the highest journaled seq.
type app struct {
	cfg    *config.Config
	store  *store.Store
	vault  *custody.MemoryVault
	engine *engine.Engine
}

func openApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	if opts.DBPath != "" {
		cfg.DBPath = opts.DBPath
	}

	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}

	eng, vault, err := buildEngine(ctx, cfg, s)
	if err != nil {
		s.Close()
		return nil, WrapExitError(ExitCommandError, "wire engine", err)
	}

	return &app{cfg: cfg, store: s, vault: vault, engine: eng}, nil
}

// buildEngine assembles the paper-trading collaborator set around the store.
// Quotes and fills both come from the configured router rate, so the price
// guard exercises its deviation band against the configured reference.
func buildEngine(ctx context.Context, cfg *config.Config, s *store.Store) (*engine.Engine, *custody.MemoryVault, error) {
	g, err := guard.New(guard.Config{
		MaxStaleness:    cfg.MaxStaleness(),
		MaxDeviationBps: cfg.Guard.MaxDeviationBps,
		ReferencePrice:  cfg.Guard.ReferencePrice,
		SlippageBps:     cfg.Guard.SlippageBps,
	})
	if err != nil {
		return nil, nil, err
	}

	quotes := &oracle.StaticSource{Price: cfg.Router.Rate, Origin: "paper"}

	provider, err := random.NewLocalProvider([]byte(cfg.Randomness.Secret))
	if err != nil {
		return nil, nil, err
	}

	gate, err := random.NewGate(cfg.MaxJitter(), s)
	if err != nil {
		return nil, nil, err
	}

	router, err := swap.NewFixedRateRouter(cfg.Router.Rate)
	if err != nil {
		return nil, nil, err
	}

	executor, err := swap.NewExecutor(router, cfg.Pair.Input, cfg.Pair.Output)
	if err != nil {
		return nil, nil, err
	}

	maxSeq, err := s.MaxAttemptSeq(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("resume journal sequencer: %w", err)
	}

	vault := custody.NewMemoryVault()

	eng, err := engine.New(engine.Config{
		Ledger:     ledger.New(s),
		Guard:      g,
		Oracle:     quotes,
		Randomness: provider,
		Gate:       gate,
		Executor:   executor,
		Vault:      vault,
		Journal:    s,
		Pair:       cfg.Pair.Output + "/" + cfg.Pair.Input,
	}, engine.WithSequencer(engine.NewSequencerAt(maxSeq)))
	if err != nil {
		return nil, nil, err
	}

	return eng, vault, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
