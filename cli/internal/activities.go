package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/clubhouse/internal/models"
	"github.com/devilmonastery/clubhouse/internal/pkg/textutil"
	"github.com/devilmonastery/clubhouse/internal/pkg/timeutil"
)

func newActivitiesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "activities",
		Aliases: []string{"activity"},
		Short:   "Browse and enroll in activities",
	}
	cmd.AddCommand(newActivitiesListCommand())
	cmd.AddCommand(newActivitiesShowCommand())
	cmd.AddCommand(newActivitiesJoinCommand())
	cmd.AddCommand(newActivitiesLeaveCommand())
	return cmd
}

func newActivitiesListCommand() *cobra.Command {
	var clubID, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activities, optionally of one club",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)

			var (
				activities []models.Activity
				err        error
			)
			if clubID != "" {
				activities, err = cc.API.Activities.ByClub(cmd.Context(), clubID)
			} else {
				q := url.Values{}
				if status != "" {
					q.Set("status", status)
				}
				activities, err = cc.API.Activities.List(cmd.Context(), q)
			}
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd, activities)
			}
			printActivities(cmd, cc, activities)
			return nil
		},
	}

	cmd.Flags().StringVar(&clubID, "club", "", "Only activities of this club")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	return cmd
}

func printActivities(cmd *cobra.Command, cc *CliContext, activities []models.Activity) {
	if len(activities) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No activities found")
		return
	}
	w := newTable(cmd.OutOrStdout(), "ID\tNAME\tSTARTS\tLOCATION\tSEATS\tSTATUS")
	for _, a := range activities {
		seats := "-"
		if left := a.SeatsLeft(); left >= 0 {
			seats = fmt.Sprintf("%d/%s", left, intOrDash(a.MaxParticipants))
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			a.ActivityID,
			textutil.Truncate(a.Name, 40),
			timeutil.FormatEventTime(a.StartDate, timezone(cc)),
			orDash(textutil.Truncate(a.Location, 30)),
			seats,
			orDash(a.Status))
	}
	w.Flush()
}

func newActivitiesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show ACTIVITY_ID",
		Short: "Show an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)
			a, err := cc.API.Activities.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd, a)
			}

			tz := timezone(cc)
			var md strings.Builder
			fmt.Fprintf(&md, "# %s\n\n", a.Name)
			if a.ClubName != "" {
				fmt.Fprintf(&md, "*%s*\n\n", a.ClubName)
			}
			fmt.Fprintf(&md, "- **When:** %s", timeutil.FormatEventTime(a.StartDate, tz))
			if a.EndTime != "" {
				fmt.Fprintf(&md, " until %s", timeutil.FormatEventTime(a.EndTime, tz))
			}
			fmt.Fprintf(&md, "\n- **Where:** %s\n", orDash(a.Location))
			fmt.Fprintf(&md, "- **Status:** %s\n", orDash(a.Status))
			if left := a.SeatsLeft(); left >= 0 {
				fmt.Fprintf(&md, "- **Seats left:** %d of %d\n", left, *a.MaxParticipants)
			}
			if a.Description != "" {
				md.WriteString("\n" + a.Description + "\n")
			}
			printMarkdown(cmd.OutOrStdout(), cc, md.String())
			return nil
		},
	}
}

func newActivitiesJoinCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "join ACTIVITY_ID",
		Short: "Enroll in an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := getCliContext(cmd).API.Users.JoinActivity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printMessage(cmd, resp.Message, "✓ Enrolled")
			return nil
		},
	}
}

func newActivitiesLeaveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "leave ACTIVITY_ID",
		Short: "Leave an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := getCliContext(cmd).API.Users.LeaveActivity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printMessage(cmd, resp.Message, "✓ Left activity")
			return nil
		},
	}
}
