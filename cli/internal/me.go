package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/clubhouse/internal/models"
	"github.com/devilmonastery/clubhouse/internal/pkg/textutil"
	"github.com/devilmonastery/clubhouse/internal/pkg/timeutil"
)

func newMeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "me",
		Short: "Your profile, memberships and notifications",
	}
	cmd.AddCommand(newMeProfileCommand())
	cmd.AddCommand(newMeUpdateCommand())
	cmd.AddCommand(newMePasswordCommand())
	cmd.AddCommand(newMePhotoCommand())
	cmd.AddCommand(newMeClubsCommand())
	cmd.AddCommand(newMeActivitiesCommand())
	cmd.AddCommand(newMeEventsCommand())
	cmd.AddCommand(newMeNotificationsCommand())
	cmd.AddCommand(newMeReadCommand())
	return cmd
}

func newMeProfileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)
			u, err := cc.Auth.FetchProfile(cmd.Context())
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd, u)
			}
			printProfile(cmd, u)
			return nil
		},
	}
}

func printProfile(cmd *cobra.Command, u *models.UserProfile) {
	w := newTable(cmd.OutOrStdout(), "FIELD\tVALUE")
	rows := [][2]string{
		{"Name", u.DisplayName()},
		{"Username", u.Username},
		{"Email", u.Email},
		{"Phone", u.Phone},
		{"Birth date", u.BirthDate},
		{"Career", u.Career},
		{"Roles", strings.Join(u.Roles, ", ")},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\n", r[0], orDash(r[1]))
	}
	w.Flush()
	if u.AboutMe != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", u.AboutMe)
	}
}

func newMeUpdateCommand() *cobra.Command {
	var update models.ProfileUpdate

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if update == (models.ProfileUpdate{}) {
				return fmt.Errorf("nothing to update; pass at least one flag")
			}
			u, err := getCliContext(cmd).API.Users.UpdateProfile(cmd.Context(), update)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Profile updated for %s\n", u.DisplayName())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&update.FirstName, "first-name", "", "First name")
	f.StringVar(&update.LastName, "last-name", "", "Last name")
	f.StringVar(&update.Phone, "phone", "", "Phone number")
	f.StringVar(&update.AboutMe, "about", "", "About me")
	f.StringVar(&update.Career, "career", "", "Career")
	return cmd
}

func newMePasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			current, err := promptSecret(cmd.OutOrStdout(), in, "Current password: ")
			if err != nil {
				return err
			}
			next, err := promptSecret(cmd.OutOrStdout(), in, "New password: ")
			if err != nil {
				return err
			}
			resp, err := getCliContext(cmd).API.Users.ChangePassword(cmd.Context(), current, next)
			if err != nil {
				return err
			}
			printMessage(cmd, resp.Message, "✓ Password changed")
			return nil
		},
	}
}

func newMePhotoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "photo FILE",
		Short: "Upload a new profile photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			img, err := getCliContext(cmd).API.Users.UpdatePhoto(cmd.Context(), filepath.Base(args[0]), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Photo uploaded: %s\n", img.URL)
			return nil
		},
	}
}

func newMeClubsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clubs",
		Short: "Clubs you belong to",
		RunE: func(cmd *cobra.Command, args []string) error {
			clubs, err := getCliContext(cmd).API.Users.MyClubs(cmd.Context())
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd, clubs)
			}
			printClubs(cmd, clubs)
			return nil
		},
	}
}

func newMeActivitiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "activities",
		Short: "Activities you are enrolled in",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)
			activities, err := cc.API.Users.MyActivities(cmd.Context())
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
}

func newMeEventsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Upcoming events of your clubs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)
			events, err := cc.API.Users.UpcomingEvents(cmd.Context())
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd, events)
			}
			printActivities(cmd, cc, events)
			return nil
		},
	}
}

func newMeNotificationsCommand() *cobra.Command {
	var unreadOnly bool

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List your notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)
			all, err := cc.API.Users.Notifications(cmd.Context())
			if err != nil {
				return err
			}
			if unreadOnly {
				all = models.Unread(all)
			}
			if wantJSON() {
				return printJSON(cmd, all)
			}
			if len(all) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No notifications")
				return nil
			}
			w := newTable(cmd.OutOrStdout(), "ID\t \tTYPE\tWHEN\tMESSAGE")
			for _, n := range all {
				mark := " "
				if !n.IsRead {
					mark = "●"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					n.ID, mark, orDash(string(n.Type)),
					timeutil.FormatEventTime(n.CreatedAt, timezone(cc)),
					textutil.Truncate(n.Message, 60))
			}
			w.Flush()
			return nil
		},
	}
	cmd.Flags().BoolVar(&unreadOnly, "unread", false, "Only unread notifications")
	return cmd
}

func newMeReadCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "read [NOTIFICATION_ID...]",
		Short: "Mark notifications as read",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)
			ids := args
			if all {
				notifications, err := cc.API.Users.Notifications(cmd.Context())
				if err != nil {
					return err
				}
				ids = nil
				for _, n := range models.Unread(notifications) {
					ids = append(ids, strconv.FormatInt(n.ID, 10))
				}
			}
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to mark")
				return nil
			}
			if err := cc.API.Users.MarkNotificationsRead(cmd.Context(), ids); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Marked %d notification(s) as read\n", len(ids))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Mark every unread notification")
	return cmd
}
