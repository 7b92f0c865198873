package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"slices"
	"syscall"

	jRPC "github.com/0xPolygon/cdk-rpc/rpc"
	"github.com/ethereum/go-ethereum/ethclient"
	commitmenttree "github.com/mystikonetwork/commitment-tree"
	"github.com/mystikonetwork/commitment-tree/commitmentsync"
	"github.com/mystikonetwork/commitment-tree/common"
	"github.com/mystikonetwork/commitment-tree/config"
	"github.com/mystikonetwork/commitment-tree/log"
	"github.com/mystikonetwork/commitment-tree/rpc"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func start(cliCtx *cli.Context) error {
	c, err := config.Load(cliCtx)
	if err != nil {
		return err
	}

	log.Init(c.Log)

	if c.Log.Environment == log.EnvironmentDevelopment {
		commitmenttree.PrintVersion(os.Stdout)
		log.Info("Starting application")
	} else if c.Log.Environment == log.EnvironmentProduction {
		logVersion()
	}

	components := cliCtx.StringSlice(config.FlagComponents)
	for _, component := range components {
		if component != common.COMMITMENT_SYNC && component != common.RPC {
			return fmt.Errorf("unknown component %s", component)
		}
	}

	ctx, stop := signal.NotifyContext(cliCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	commitmentSync, err := createCommitmentSync(ctx, c)
	if err != nil {
		return err
	}
	defer commitmentSync.Close()

	g, ctx := errgroup.WithContext(ctx)
	if slices.Contains(components, common.COMMITMENT_SYNC) {
		g.Go(func() error {
			return commitmentSync.Start(ctx)
		})
	}
	if slices.Contains(components, common.RPC) {
		server := createRPC(c.RPC, commitmentSync)
		g.Go(func() error {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return server.Stop()
		})
	}

	err = g.Wait()
	log.Info("terminating application gracefully...")
	return err
}

func createCommitmentSync(ctx context.Context, c *config.Config) (*commitmentsync.CommitmentSync, error) {
	treeOpts, err := c.Tree.Options()
	if err != nil {
		return nil, fmt.Errorf("invalid [Tree] config: %w", err)
	}
	client, err := ethclient.DialContext(ctx, c.CommitmentSync.URLRPC)
	if err != nil {
		return nil, fmt.Errorf("error dialing %s: %w", c.CommitmentSync.URLRPC, err)
	}
	return commitmentsync.New(ctx, c.CommitmentSync, client, treeOpts...)
}

func createRPC(cfg jRPC.Config, tree rpc.Treer) *jRPC.Server {
	logger := log.WithFields("module", common.RPC)
	services := []jRPC.Service{
		{
			Name:    rpc.TREE,
			Service: rpc.NewTreeEndpoints(logger, cfg.ReadTimeout.Duration, tree),
		},
	}

	return jRPC.NewServer(cfg, services, jRPC.WithLogger(logger.GetSugaredLogger()))
}

func logVersion() {
	log.Infow("Starting application",
		// version is already logged by default
		"gitRevision", commitmenttree.GitRev,
		"gitBranch", commitmenttree.GitBranch,
		"goVersion", runtime.Version(),
		"built", commitmenttree.BuildDate,
		"os/arch", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	)
}
