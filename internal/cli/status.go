package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tessro/sidecar/internal/paths"
	"github.com/tessro/sidecar/internal/pidfile"
)

var (
	statusRunningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	statusStoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a sidecar worker is running",
	Long:  "Read the worker PID file and report whether that process is alive. A stale PID file is removed.",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	path := paths.WorkerPIDPath()
	out := cmd.OutOrStdout()

	running, pid := pidfile.Status(path)
	switch {
	case running:
		fmt.Fprintf(out, "%s (pid %d)\n", statusRunningStyle.Render("sidecar worker running"), pid)
	case pid > 0:
		fmt.Fprintf(out, "%s (stale pid %d removed)\n", statusStoppedStyle.Render("sidecar worker not running"), pid)
	default:
		fmt.Fprintln(out, statusStoppedStyle.Render("sidecar worker not running"))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
