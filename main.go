package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"caintamart/commerce"
	"caintamart/config"
	"caintamart/db"
	"caintamart/docstore"
	"caintamart/mq"
	"caintamart/rdx"
	"caintamart/seed"
	"caintamart/state"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caintamart",
		Short: "Caintamart storefront server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(config.Load())
		},
		SilenceUsage: true,
	}
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newSeedCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Port = ":" + port
			}
			return serve(cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}

func newSeedCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a YAML product catalog into MongoDB",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			catalog, err := seed.LoadFile(file)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			client, database, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
			if err != nil {
				return err
			}
			defer disconnect(client)

			// Publish through Redis when it is up so running servers reload.
			var feed docstore.Feed
			if rc, err := rdx.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword); err != nil {
				log.Printf("[seed] redis unavailable, running servers will not be notified: %v", err)
			} else {
				defer rc.Close()
				feed = mq.NewFeed(rc)
			}
			store := docstore.NewMongo(database, feed)
			shop := commerce.NewService(store, state.New(cfg.DefaultDeliveryFee), nil)
			n, err := seed.Apply(ctx, shop, catalog)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products into %s\n", n, cfg.MongoDB)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog YAML (defaults to the built-in catalog)")
	return cmd
}

type disconnector interface {
	Disconnect(ctx context.Context) error
}

func disconnect(c disconnector) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Disconnect(ctx); err != nil {
		log.Printf("[db] disconnect: %v", err)
	}
}
