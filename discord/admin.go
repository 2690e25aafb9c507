package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const (
	PointsCommandName    = "fc_points"
	PointsButtonCustomID = "fc_points_button"
	guildMembersLimit    = 1000
)

// ButtonOptions controls the FC Points button message.
type ButtonOptions struct {
	Content  string
	Disabled bool
}

// PointsCommand is the /fc_points guild command.
func PointsCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        PointsCommandName,
		Description: "Make a submission or check FC points",
		Type:        discordgo.ChatApplicationCommand,
	}
}

// PointsButtonMessage is the action channel message holding the FC Points button.
func PointsButtonMessage(opts ButtonOptions) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content: opts.Content,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "FC Points",
					Style:    discordgo.PrimaryButton,
					CustomID: PointsButtonCustomID,
					Disabled: opts.Disabled,
				},
			}},
		},
	}
}

// RegisterGuildCommands creates the /fc_points command and posts the FC
// Points button in the action channel.
func (c *Client) RegisterGuildCommands(ctx context.Context, opts ButtonOptions) (*discordgo.ApplicationCommand, *discordgo.Message, error) {
	cmd, err := c.session.ApplicationCommandCreate(c.cfg.AppID, c.cfg.GuildID, PointsCommand(), discordgo.WithContext(ctx))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to register %s: %w", PointsCommandName, err)
	}
	msg, err := c.session.ChannelMessageSendComplex(c.cfg.ActionChannelID, PointsButtonMessage(opts), discordgo.WithContext(ctx))
	if err != nil {
		return cmd, nil, fmt.Errorf("failed to post points button: %w", err)
	}
	c.logger.Info("registered guild commands", "command", cmd.ID, "message", msg.ID)
	return cmd, msg, nil
}

func (c *Client) GuildCommands(ctx context.Context) ([]*discordgo.ApplicationCommand, error) {
	cmds, err := c.session.ApplicationCommands(c.cfg.AppID, c.cfg.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get guild commands: %w", err)
	}
	return cmds, nil
}

func (c *Client) DeleteGuildCommand(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("command id is required")
	}
	if err := c.session.ApplicationCommandDelete(c.cfg.AppID, c.cfg.GuildID, id, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete guild command %s: %w", id, err)
	}
	return nil
}

// GuildMembers returns up to 1000 guild members.
func (c *Client) GuildMembers(ctx context.Context) ([]*discordgo.Member, error) {
	members, err := c.session.GuildMembers(c.cfg.GuildID, "", guildMembersLimit, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get guild members: %w", err)
	}
	return members, nil
}
