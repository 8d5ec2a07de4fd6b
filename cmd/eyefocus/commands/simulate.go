package commands

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bryanchriswhite/EyeFocus/internal/focus"
	"github.com/bryanchriswhite/EyeFocus/internal/page"
	"github.com/bryanchriswhite/EyeFocus/internal/registry"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Drive the navigator from stdin",
	Long: `Load an HTML page and feed the navigator from stdin, one input per line.
Synthetic events are printed to stdout as JSON lines.

Input lines:
  <code>              key press, e.g. ArrowRight, KeyW, Enter
  enter <index>       gaze enter on element <index> of the current registry
  exit <index>        gaze exit
  stay <index> <ms>   gaze dwell
  resize <w> <h>      resize the viewport and rebuild the registry
  reload              re-read the page and rebuild the registry
  # ...               comment`,
	Example: `  printf 'ArrowRight\nArrowDown\nEnter\n' | eyefocus simulate --page ui.html`,
	RunE: runSimulate,
}

var simulatePage string

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&simulatePage, "page", "p", "", "HTML page (default is page_path from the config)")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := configMgr.Get()

	settings, err := cfg.Navigation()
	if err != nil {
		return err
	}

	path := simulatePage
	if path == "" {
		path = cfg.PagePath
	}
	if path == "" {
		return fmt.Errorf("no page given (use --page or set page_path)")
	}

	doc, err := page.Load(path, cfg.MarkerClass)
	if err != nil {
		return err
	}
	return simulate(cmd.InOrStdin(), cmd.OutOrStdout(), doc, settings)
}

// simulate runs every input line from in against a navigator over doc.
func simulate(in io.Reader, out io.Writer, doc *page.Document, settings focus.Settings) error {
	reg := registry.New(doc)
	nav := focus.NewNavigator(reg, page.NewEventSink(out), settings)
	if _, err := reg.Rebuild(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for line := 1; scanner.Scan(); line++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if err := simulateLine(nav, reg, doc, fields); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return scanner.Err()
}

func simulateLine(nav *focus.Navigator, reg *registry.Registry, doc *page.Document, fields []string) error {
	id := reg.Current().ID

	switch fields[0] {
	case "enter", "exit", "stay":
		want := 2
		if fields[0] == "stay" {
			want = 3
		}
		if len(fields) != want {
			return fmt.Errorf("%s: expected %d arguments", fields[0], want-1)
		}
		index, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("%s: invalid index %q", fields[0], fields[1])
		}
		switch fields[0] {
		case "enter":
			nav.Enter(id, index)
		case "exit":
			nav.Exit(id, index)
		case "stay":
			ms, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return fmt.Errorf("stay: invalid time %q", fields[2])
			}
			nav.Stay(id, index, time.Duration(ms*float64(time.Millisecond)))
		}

	case "resize":
		if len(fields) != 3 {
			return fmt.Errorf("resize: expected width and height")
		}
		w, errW := strconv.ParseFloat(fields[1], 64)
		h, errH := strconv.ParseFloat(fields[2], 64)
		if errW != nil || errH != nil {
			return fmt.Errorf("resize: invalid size %s x %s", fields[1], fields[2])
		}
		doc.Resize(w, h)
		reg.Invalidate()

	case "reload":
		if err := doc.Reload(); err != nil {
			return err
		}
		reg.Invalidate()

	default:
		if len(fields) != 1 {
			return fmt.Errorf("unknown command %q", fields[0])
		}
		nav.HandleKey(focus.KeyEvent{Code: fields[0]})
	}
	return nil
}
