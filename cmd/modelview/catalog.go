package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/Faultbox/modelview/internal/catalog"
)

func (a *app) cmdList(ctx context.Context, _ []string) error {
	models, err := a.catalog().List(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Fprintln(a.out, "No models yet.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFORMAT\tSIZE\tUPDATED\tURL")
	for _, m := range models {
		updated := "-"
		if !m.UpdatedAt.IsZero() {
			updated = m.UpdatedAt.Local().Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f MB\t%s\t%s\n",
			m.ID, m.Name, m.Format, m.SizeMB, updated, m.URL)
	}
	fmt.Fprintf(tw, "\nTotal: %d models\n", len(models))
	return tw.Flush()
}

func (a *app) cmdDelete(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: modelview delete <id>...")
	}
	c := a.catalog()
	var errs []error
	for _, id := range args {
		if err := c.Delete(ctx, id); err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(a.out, "Deleted %s\n", id)
	}
	return errors.Join(errs...)
}

func (a *app) cmdUpload(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: modelview upload <name> <file>")
	}
	req := catalog.UploadRequest{Name: args[0], Path: args[1]}

	last := -1
	err := a.catalog().Upload(ctx, req, func(pct int) {
		if pct == last {
			return
		}
		last = pct
		fmt.Fprintf(a.out, "\rUploading… %3d%%", pct)
	})
	fmt.Fprintln(a.out)
	if errors.Is(err, context.Canceled) {
		return errors.New("upload canceled")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploaded %q\n", req.Name)
	return nil
}

// cmdPreload warms the asset cache with every catalog model, the way the
// catalog grid does before cards scroll into view.
func (a *app) cmdPreload(ctx context.Context, _ []string) error {
	models, err := a.catalog().List(ctx)
	if err != nil {
		return err
	}
	urls := make([]string, 0, len(models))
	for _, m := range models {
		urls = append(urls, m.URL)
	}

	m := a.assets()
	defer m.Close()
	err = m.PreloadAll(ctx, urls)

	s := m.Stats()
	a.log.Debug("preload finished", zap.Int("entries", s.Entries), zap.Int("fetches", s.Fetches))
	fmt.Fprintf(a.out, "Preloaded %d of %d models\n", s.Entries, len(urls))
	return err
}
