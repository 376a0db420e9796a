package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	sapnhaphttp "github.com/fwojciec/sapnhap/http"
)

// Run executes the serve command. It stops when the context is canceled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	db, records, err := deps.openRecords()
	if err != nil {
		return err
	}
	defer db.Close()

	ln, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", c.Addr, err)
	}

	srv := &http.Server{
		Handler:           sapnhaphttp.NewHandler(records, deps.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	fmt.Fprintf(deps.Stdout, "Serving lookup API on http://%s\n", ln.Addr())

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-deps.Ctx.Done():
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(deps.Ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
