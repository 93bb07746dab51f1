package cmd

import (
	"fmt"
	"sync"

	"envnotify/core"
	"envnotify/logger"

	"github.com/spf13/cobra"
)

var checkWatch bool

var checkCmd = &cobra.Command{
	Use:   "check <url>",
	Short: "Show which rule a URL triggers and render its banner in the terminal",
	Long: `Runs the same match the proxy runs on page load. On a match the border and banner are
drawn in the terminal. With --watch the banner stays for its dwell time, fades and is
removed, exactly as it would on the page.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		rules, err := ruleStore.Load(ctx)
		if err != nil {
			return err
		}
		rule, ok := core.Select(args[0], rules)
		if !ok {
			fmt.Fprintf(out(cmd), "No rule matches %s\n", args[0])
			return nil
		}
		fmt.Fprintf(out(cmd), "Rule %s (%s %q, position %d) matches %s\n", rule.ID, rule.MatchType.Label(), rule.URLPattern, rule.Order, args[0])

		idle := make(chan struct{})
		var once sync.Once
		opts := []core.PresenterOption{core.WithStateListener(func(s core.State) {
			logger.Debug("check: banner state %s", s)
			if s == core.StateIdle {
				once.Do(func() { close(idle) })
			}
		})}
		if !checkWatch {
			opts = append(opts, core.WithClock(core.HoldClock{}))
		}
		p := core.NewPresenter(core.NewTerminalSurface(out(cmd)), opts...)
		if err := p.Show(rule); err != nil {
			return err
		}
		if !checkWatch {
			return nil
		}

		select {
		case <-idle:
		case <-ctx.Done():
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVarP(&checkWatch, "watch", "w", false, "keep running through the banner's dwell and fade-out")
	rootCmd.AddCommand(checkCmd)
}
