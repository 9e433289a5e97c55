package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/clubhouse/internal/models"
	"github.com/devilmonastery/clubhouse/internal/pkg/textutil"
	"github.com/devilmonastery/clubhouse/internal/pkg/timeutil"
)

func newAdminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer clubs you manage",
	}
	cmd.AddCommand(newAdminOverviewCommand())
	cmd.AddCommand(newAdminMembersCommand())
	cmd.AddCommand(newAdminStatsCommand())
	cmd.AddCommand(newAdminRequestsCommand())
	cmd.AddCommand(newAdminDecisionCommand("approve", true))
	cmd.AddCommand(newAdminDecisionCommand("reject", false))
	cmd.AddCommand(newAdminHeatmapCommand())
	cmd.AddCommand(newAdminEnrollmentsCommand())
	cmd.AddCommand(newAdminExportCommand())
	cmd.AddCommand(newAdminDeleteCommand())
	cmd.AddCommand(newAdminReactivateCommand())
	cmd.AddCommand(newAdminActivityCreateCommand())
	cmd.AddCommand(newAdminActivityUpdateCommand())
	cmd.AddCommand(newAdminActivityCancelCommand())
	return cmd
}

func newAdminOverviewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "overview CLUB_ID",
		Short: "Club details, members, activities, requests and stats at once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)
			d, err := cc.Dashboard.ClubDetails(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd, d)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (#%d) %s\n", d.Club.Name, d.Club.GroupID, orDash(d.Club.Status))
			fmt.Fprintf(out, "Members: %d total, %d active, %d new this month\n",
				d.Stats.TotalMembers, d.Stats.ActiveMembers, d.Stats.NewThisMonth)
			fmt.Fprintf(out, "Activities: %d, pending join requests: %d\n", len(d.Activities), len(d.JoinRequests))
			if !d.IsAdmin {
				fmt.Fprintln(out, "Note: you are not the registered admin of this club")
			}
			return nil
		},
	}
}

func newAdminMembersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "members CLUB_ID",
		Short: "List club members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)
			members, err := cc.API.Admin.MembersList(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd, members)
			}
			w := newTable(cmd.OutOrStdout(), "USER ID\tNAME\tEMAIL\tROLE\tJOINED")
			for _, m := range members {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", m.UserID, m.Name, orDash(m.Email), orDash(m.Role),
					timeutil.FormatEventTime(m.JoinedAt, timezone(cc)))
			}
			w.Flush()
			return nil
		},
	}
}

func newAdminStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats CLUB_ID",
		Short: "Show membership statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := getCliContext(cmd).API.Admin.MemberStats(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd, stats)
			}
			w := newTable(cmd.OutOrStdout(), "METRIC\tVALUE")
			fmt.Fprintf(w, "totalMembers\t%d\n", stats.TotalMembers)
			fmt.Fprintf(w, "activeMembers\t%d\n", stats.ActiveMembers)
			fmt.Fprintf(w, "newThisMonth\t%d\n", stats.NewThisMonth)
			keys := make([]string, 0, len(stats.Extra))
			for k := range stats.Extra {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(w, "%s\t%s\n", k, stats.Extra[k])
			}
			w.Flush()
			return nil
		},
	}
}

func newAdminRequestsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "requests CLUB_ID",
		Short: "List pending join requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)
			reqs, err := cc.API.Admin.JoinRequests(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd, reqs)
			}
			if len(reqs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending requests")
				return nil
			}
			w := newTable(cmd.OutOrStdout(), "REQUEST\tUSER\tREQUESTED\tMESSAGE")
			for _, r := range reqs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.RequestID, r.UserName,
					timeutil.FormatEventTime(r.RequestedAt, timezone(cc)),
					orDash(textutil.Truncate(r.Message, 50)))
			}
			w.Flush()
			return nil
		},
	}
}

func newAdminDecisionCommand(verb string, approve bool) *cobra.Command {
	past := "rejected"
	if approve {
		past = "approved"
	}
	return &cobra.Command{
		Use:   verb + " CLUB_ID REQUEST_ID",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " a join request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := getCliContext(cmd).API.Admin.ProcessJoinRequest(cmd.Context(), args[0], args[1], approve)
			if err != nil {
				return err
			}
			printMessage(cmd, resp.Message, fmt.Sprintf("✓ Request %s %s", args[1], past))
			return nil
		},
	}
}

func newAdminHeatmapCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "heatmap CLUB_ID",
		Short: "Weekly activity heatmap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cells, err := getCliContext(cmd).API.Admin.WeeklyHeatmap(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd, cells)
			}
			printHeatmap(cmd, cells)
			return nil
		},
	}
}

// printHeatmap draws one row per day with a bar per busy hour.
func printHeatmap(cmd *cobra.Command, cells []models.HeatmapCell) {
	if len(cells) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No activity recorded")
		return
	}
	peak := 0
	var days []string
	byDay := map[string][]models.HeatmapCell{}
	for _, c := range cells {
		if _, ok := byDay[c.Day]; !ok {
			days = append(days, c.Day)
		}
		byDay[c.Day] = append(byDay[c.Day], c)
		peak = max(peak, c.Count)
	}
	w := newTable(cmd.OutOrStdout(), "DAY\tHOUR\tCOUNT\t")
	for _, day := range days {
		hours := byDay[day]
		sort.Slice(hours, func(i, j int) bool { return hours[i].Hour < hours[j].Hour })
		for _, c := range hours {
			bar := ""
			if peak > 0 {
				bar = strings.Repeat("█", (c.Count*20+peak-1)/peak)
			}
			fmt.Fprintf(w, "%s\t%02d:00\t%d\t%s\n", day, c.Hour, c.Count, bar)
		}
	}
	w.Flush()
}

func newAdminEnrollmentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "enrollments CLUB_ID",
		Short: "Enrollment per activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := getCliContext(cmd).API.Admin.EnrollmentStats(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd, stats)
			}
			w := newTable(cmd.OutOrStdout(), "ACTIVITY\tNAME\tENROLLED\tCAPACITY")
			for _, s := range stats {
				capacity := "-"
				if s.MaxParticipants > 0 {
					capacity = fmt.Sprintf("%d", s.MaxParticipants)
				}
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", s.ActivityID, textutil.Truncate(s.Name, 40), s.Enrolled, capacity)
			}
			w.Flush()
			return nil
		},
	}
}

func newAdminExportCommand() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "export CLUB_ID",
		Short: "Export the member list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)
			data, contentType, err := cc.API.Admin.ExportMembers(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if outFile == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(outFile, data, 0o600); err != nil {
				return fmt.Errorf("failed to write %s: %w", outFile, err)
			}
			cc.Logger.Debug("export written", "content_type", contentType, "bytes", len(data))
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %d bytes to %s\n", len(data), outFile)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outFile, "file", "f", "", "Write to this file instead of stdout")
	return cmd
}

func newAdminDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete CLUB_ID",
		Short: "Deactivate a club",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete club %s without --yes", args[0])
			}
			resp, err := getCliContext(cmd).API.Clubs.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printMessage(cmd, resp.Message, "✓ Club deleted")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}

func newAdminReactivateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reactivate CLUB_ID",
		Short: "Reactivate a deleted club",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := getCliContext(cmd).API.Clubs.Reactivate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printMessage(cmd, resp.Message, "✓ Club reactivated")
			return nil
		},
	}
}

func newAdminActivityCreateCommand() *cobra.Command {
	var (
		in       models.ActivityInput
		capacity int
	)

	cmd := &cobra.Command{
		Use:   "activity-create CLUB_ID",
		Short: "Schedule an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)
			if _, err := timeutil.ParseBackendTime(in.StartDate, timezone(cc)); err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			if capacity > 0 {
				in.MaxParticipants = &capacity
			}
			a, err := cc.API.Activities.AdminCreate(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd, a)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Activity %q created (ID %d)\n", a.Name, a.ActivityID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "Activity name")
	f.StringVar(&in.StartDate, "start", "", "Start (YYYY-MM-DDTHH:MM)")
	f.StringVar(&in.EndTime, "end", "", "End (YYYY-MM-DDTHH:MM)")
	f.StringVar(&in.Location, "location", "", "Location")
	f.StringVar(&in.Description, "description", "", "Description (markdown)")
	f.StringVar(&in.ActivityType, "type", "", "Activity type")
	f.IntVar(&capacity, "capacity", 0, "Maximum participants (0 for unlimited)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func newAdminActivityUpdateCommand() *cobra.Command {
	var in models.ActivityInput
	var capacity int

	cmd := &cobra.Command{
		Use:   "activity-update ACTIVITY_ID",
		Short: "Change an activity; only the given flags are sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)
			for _, v := range []string{in.StartDate, in.EndTime} {
				if v == "" {
					continue
				}
				if _, err := timeutil.ParseBackendTime(v, timezone(cc)); err != nil {
					return fmt.Errorf("invalid time %q: %w", v, err)
				}
			}
			if cmd.Flags().Changed("capacity") {
				in.MaxParticipants = &capacity
			}
			if in == (models.ActivityInput{}) {
				return fmt.Errorf("nothing to update")
			}
			a, err := cc.API.Activities.AdminUpdate(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd, a)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Activity %s updated\n", args[0])
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "Activity name")
	f.StringVar(&in.StartDate, "start", "", "Start (YYYY-MM-DDTHH:MM)")
	f.StringVar(&in.EndTime, "end", "", "End (YYYY-MM-DDTHH:MM)")
	f.StringVar(&in.Location, "location", "", "Location")
	f.StringVar(&in.Status, "status", "", "Status")
	f.StringVar(&in.Description, "description", "", "Description (markdown)")
	f.IntVar(&capacity, "capacity", 0, "Maximum participants")
	return cmd
}

func newAdminActivityCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "activity-cancel ACTIVITY_ID",
		Short: "Cancel an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := getCliContext(cmd).API.Activities.AdminCancel(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Activity %s cancelled\n", args[0])
			return nil
		},
	}
}
