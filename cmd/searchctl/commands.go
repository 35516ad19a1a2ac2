package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"searchgofer/internal/search"
)

var errUsage = errors.New("usage")

type command struct {
	name string
	help string
	run  func(ctx context.Context, client *search.Client, args []string, out io.Writer) error
}

var commands = []command{
	{"indices", "list the indices of the application", listIndices},
	{"keys", "list the api keys", listKeys},
	{"key", "<key> show one api key", getKey},
	{"browse", "<index> [query] print every object of an index, one per line", browse},
	{"wait", "<index> <taskID> block until a task is published", waitTask},
	{"secured-key", "[-valid-for d] [-indices a,b] [-user-token t] [-filters f] <parentKey>", securedKey},
	{"hosts", "print the host table and its health", hosts},
}

func run(ctx context.Context, client *search.Client, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: command is required", errUsage)
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(ctx, client, args[1:], out)
		}
	}
	return fmt.Errorf("%w: unknown command '%s'", errUsage, args[0])
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func listIndices(ctx context.Context, client *search.Client, _ []string, out io.Writer) error {
	indices, err := client.ListIndices(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, indices)
}

func listKeys(ctx context.Context, client *search.Client, _ []string, out io.Writer) error {
	keys, err := client.ListAPIKeys(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, keys)
}

func getKey(ctx context.Context, client *search.Client, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: key <key>", errUsage)
	}
	key, err := client.GetAPIKey(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(out, key)
}

func browse(ctx context.Context, client *search.Client, args []string, out io.Writer) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: browse <index> [query]", errUsage)
	}
	index, err := client.InitIndex(args[0])
	if err != nil {
		return err
	}

	q := &search.Query{}
	if len(args) == 2 {
		q.Query = args[1]
	}

	return index.BrowseAll(ctx, q, func(hit json.RawMessage) error {
		_, err := fmt.Fprintln(out, string(hit))
		return err
	})
}

func waitTask(ctx context.Context, client *search.Client, args []string, out io.Writer) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: wait <index> <taskID>", errUsage)
	}
	taskID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid task id '%s'", errUsage, args[1])
	}

	start := time.Now()
	if err := client.WaitTask(ctx, args[0], taskID); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "task %d published on %s after %s\n", taskID, args[0], time.Since(start).Round(time.Millisecond))
	return err
}

func securedKey(_ context.Context, _ *search.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("secured-key", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	validFor := fs.Duration("valid-for", 0, "validity of the key")
	indices := fs.String("indices", "", "comma separated indices the key is restricted to")
	userToken := fs.String("user-token", "", "user token bound to the key")
	filters := fs.String("filters", "", "filters enforced on every search")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: secured-key [flags] <parentKey>", errUsage)
	}

	r := &search.SecuredAPIKeyRestriction{UserToken: *userToken}
	if *filters != "" {
		r.Query = &search.Query{Filters: *filters}
	}
	if *indices != "" {
		r.RestrictIndices = strings.Split(*indices, ",")
	}
	if *validFor > 0 {
		r.ValidUntil = time.Now().Add(*validFor)
	}

	key, err := search.GenerateSecuredAPIKey(fs.Arg(0), r)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, key)
	return err
}

func hosts(_ context.Context, client *search.Client, _ []string, out io.Writer) error {
	return printJSON(out, client.Hosts())
}
