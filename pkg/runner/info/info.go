package info

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"tableflip.dev/taskcal/pkg/payload"
	"tableflip.dev/taskcal/pkg/store"
)

type Info struct {
	Config store.Config
	Plans  store.Plans
	Out    io.Writer
}

func (n *Info) Do(ctx context.Context) error {
	out := n.Out
	if out == nil {
		out = color.Output
	}

	if override := os.Getenv("TASKCAL_CONFIG_PATH"); override != "" {
		_, _ = fmt.Fprintln(out, "TASKCAL_CONFIG_PATH found on env, using ", override)
	} else {
		_, _ = fmt.Fprintln(out, "TASKCAL_CONFIG_PATH env var not set")
	}

	if n.Config == nil {
		var err error
		n.Config, err = store.LoadConfig()
		if err != nil {
			return err
		}
	}

	_, _ = fmt.Fprintln(out, "Config.path: ", n.Config.BasePath())
	cal := n.Config.Calendar()
	_, _ = fmt.Fprintf(out, "Calendar: %02d:%02d-%02d:%02d %s, snap %dm, default %dm\n",
		cal.WorkStartMin/60, cal.WorkStartMin%60, cal.WorkEndMin/60, cal.WorkEndMin%60,
		cal.TZ, cal.SnapMin, cal.DefaultDurationMin)
	_, _ = fmt.Fprintf(out, "Payload schema: %s v%d\n", payload.SchemaName, payload.LatestVersion)

	if n.Plans == nil {
		return errors.New("info: no plan store")
	}

	_, _ = fmt.Fprintf(out, "Plans:\n")
	found := 0
	for _, p := range n.Plans.List(ctx) {
		_, _ = fmt.Fprintf(out, "  %s %s\n", p.ID, p.Name)
		found++
	}

	if found == 0 {
		_, _ = fmt.Fprintf(out, "  %s\n", "no plans")
	}

	return nil
}
