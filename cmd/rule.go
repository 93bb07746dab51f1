package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"envnotify/core"
	"envnotify/logger"
	"envnotify/models"

	"github.com/spf13/cobra"
)

var (
	ruleMatchType string
	ruleColor     string
	rulePattern   string
	ruleMessage   string
	ruleYes       bool
	exportOutput  string
)

var ruleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Manage the ordered list of URL rules",
}

var ruleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in priority order (first match wins)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := editor.List(cmdContext(cmd))
		if err != nil {
			return err
		}
		showRules(out(cmd), rules)
		return nil
	},
}

func showRules(w io.Writer, rules []models.Rule) {
	if len(rules) == 0 {
		fmt.Fprintln(w, "No rules configured. Add one with 'envnotify rule add <pattern> <message>'.")
		return
	}
	printRules(w, rules)
}

func printRules(w io.Writer, rules []models.Rule) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tID\tMATCH\tPATTERN\tCOLOR\tMESSAGE")
	for _, r := range rules {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", r.Order, r.ID, r.MatchType.Label(), r.URLPattern, r.BorderColor, r.Message)
	}
	tw.Flush()
}

var ruleAddCmd = &cobra.Command{
	Use:   "add <url-pattern> <message>",
	Short: "Append a rule at the lowest priority",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		session := core.NewSession()
		if ruleMatchType != "" {
			if err := session.SelectMatchType(models.MatchType(ruleMatchType)); err != nil {
				return err
			}
		}
		rule, err := editor.Create(cmdContext(cmd), session, models.RuleFields{
			URLPattern:  args[0],
			Message:     args[1],
			BorderColor: ruleColor,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "Added rule %s at position %d\n", rule.ID, rule.Order)
		return nil
	},
}

var ruleEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change the pattern, match type, message or color of a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		session := core.NewSession()
		current, err := editor.BeginEdit(ctx, session, args[0])
		if errors.Is(err, models.ErrNotFound) {
			logger.Debug("rule edit: %v", err)
			fmt.Fprintf(out(cmd), "No rule with id %s, nothing changed\n", args[0])
			return nil
		}
		if err != nil {
			return err
		}

		fields := models.RuleFields{
			URLPattern:  current.URLPattern,
			MatchType:   current.MatchType,
			Message:     current.Message,
			BorderColor: current.BorderColor,
		}
		flags := cmd.Flags()
		if flags.Changed("pattern") {
			fields.URLPattern = rulePattern
		}
		if flags.Changed("message") {
			fields.Message = ruleMessage
		}
		if flags.Changed("match-type") {
			fields.MatchType = models.MatchType(ruleMatchType)
		}
		if flags.Changed("color") {
			fields.BorderColor = ruleColor
		}

		rule, err := editor.SaveEdit(ctx, session, fields)
		if errors.Is(err, models.ErrNotFound) {
			fmt.Fprintf(out(cmd), "Rule %s was removed meanwhile, nothing changed\n", args[0])
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "Updated rule %s\n", rule.ID)
		return nil
	},
}

var ruleDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a rule (asks for confirmation unless --yes)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ruleYes && !confirm(cmd, fmt.Sprintf("Delete rule %s?", args[0])) {
			fmt.Fprintln(out(cmd), "Aborted")
			return nil
		}
		if err := editor.Delete(cmdContext(cmd), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "Deleted rule %s\n", args[0])
		return nil
	},
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(out(cmd), "%s [y/N]: ", prompt)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

var ruleMoveCmd = &cobra.Command{
	Use:       "move <id> up|down",
	Short:     "Swap a rule with its neighbor",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(models.DirectionUp), string(models.DirectionDown)},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := editor.Move(cmdContext(cmd), args[0], models.Direction(strings.ToLower(args[1]))); err != nil {
			return err
		}
		// Moves past either end, or of unknown ids, save nothing and so print no list.
		if !listShown {
			fmt.Fprintf(out(cmd), "Nothing moved: rule %s is unknown or already at the end of the list\n", args[0])
		}
		return nil
	},
}

var ruleExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all rules to a JSON file (default envnotify-patterns-<millis>.json, '-' for stdout)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := editor.Export(cmdContext(cmd))
		if err != nil {
			return err
		}
		if exportOutput == "-" {
			_, err := out(cmd).Write(append(data, '\n'))
			return err
		}
		path := exportOutput
		if path == "" {
			path = core.ExportFileName(time.Now())
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("writing export to %s: %w", path, err)
		}
		fmt.Fprintf(out(cmd), "Exported rules to %s\n", path)
		return nil
	},
}

var ruleImportCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Replace all rules with the contents of an exported file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()
			r = f
		}
		n, err := editor.Import(cmdContext(cmd), r)
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "Imported %d rules\n", n)
		return nil
	},
}

func init() {
	ruleAddCmd.Flags().StringVarP(&ruleMatchType, "match-type", "m", "", "match type: partial (URL contains pattern) or prefix (URL starts with pattern)")
	ruleAddCmd.Flags().StringVarP(&ruleColor, "color", "c", "", "border and banner color (default "+models.DefaultBorderColor+")")

	ruleEditCmd.Flags().StringVarP(&rulePattern, "pattern", "p", "", "new URL pattern")
	ruleEditCmd.Flags().StringVar(&ruleMessage, "message", "", "new banner message")
	ruleEditCmd.Flags().StringVarP(&ruleMatchType, "match-type", "m", "", "new match type: partial or prefix")
	ruleEditCmd.Flags().StringVarP(&ruleColor, "color", "c", "", "new border and banner color")

	ruleDeleteCmd.Flags().BoolVarP(&ruleYes, "yes", "y", false, "delete without asking")
	ruleExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file ('-' for stdout)")

	ruleCmd.AddCommand(ruleListCmd, ruleAddCmd, ruleEditCmd, ruleDeleteCmd, ruleMoveCmd, ruleExportCmd, ruleImportCmd)
	rootCmd.AddCommand(ruleCmd)
}
