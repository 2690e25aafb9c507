package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"acrossfc/bootstrap"
	"acrossfc/discord"
)

const closedTierMessage = "Points for the current tier are now closed. The next tier will begin on <t:1719565200:f>."

var (
	buttonContent  string
	buttonDisabled bool
)

// axdCmd groups the Discord admin commands
var axdCmd = &cobra.Command{
	Use:   "axd",
	Short: "Manage the FC Discord bot",
	Long: `Administer the FC Discord application.

Available subcommands:
  register-guild-commands - Create /fc_points and post the FC Points button
  get-guild-commands      - List registered guild commands
  delete-guild-command    - Delete a guild command by id
  get-guild-members       - List guild members`,
}

var registerGuildCommandsCmd = &cobra.Command{
	Use:   "register-guild-commands",
	Short: "Create /fc_points and post the FC Points button",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(app *bootstrap.App) error {
			c, msg, err := app.Discord.RegisterGuildCommands(cmd.Context(), discord.ButtonOptions{
				Content:  buttonContent,
				Disabled: buttonDisabled,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered command %s (%s), button message %s\n", c.Name, c.ID, msg.ID)
			return nil
		})
	},
}

var getGuildCommandsCmd = &cobra.Command{
	Use:   "get-guild-commands",
	Short: "List registered guild commands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(app *bootstrap.App) error {
			cmds, err := app.Discord.GuildCommands(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), cmds)
		})
	},
}

var deleteGuildCommandCmd = &cobra.Command{
	Use:   "delete-guild-command <command-id>",
	Short: "Delete a guild command by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(app *bootstrap.App) error {
			if err := app.Discord.DeleteGuildCommand(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted command %s\n", args[0])
			return nil
		})
	},
}

var getGuildMembersCmd = &cobra.Command{
	Use:   "get-guild-members",
	Short: "List guild members",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(app *bootstrap.App) error {
			members, err := app.Discord.GuildMembers(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), members)
		})
	},
}

func init() {
	registerGuildCommandsCmd.Flags().StringVar(&buttonContent, "content", closedTierMessage, "Message posted with the FC Points button")
	registerGuildCommandsCmd.Flags().BoolVar(&buttonDisabled, "disabled", true, "Post the button disabled")

	axdCmd.AddCommand(registerGuildCommandsCmd)
	axdCmd.AddCommand(getGuildCommandsCmd)
	axdCmd.AddCommand(deleteGuildCommandCmd)
	axdCmd.AddCommand(getGuildMembersCmd)
}
