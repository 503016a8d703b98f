package conversation

import (
	"fmt"
	"strings"

	"github.com/m3rciful/avatarbot/core/telegram/format"
	"github.com/m3rciful/avatarbot/internal/catalog"
	"github.com/m3rciful/avatarbot/internal/session"
)

const (
	dicebearURL = "https://www.dicebear.com/"

	styleMenuText  = "Cool, let's generate a new avatar. Please select a style"
	styleUnknown   = "Style not recognized, please restart generation with /generate"
	internalErrMsg = "Something went wrong on our side. Please restart the conversation with /start"
)

func greetingReply(displayName string) TextReply {
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("Hello, @%s\\. This is the Telegram version of [DiceBear API](%s)",
		format.EscapeMarkdownV2(name), dicebearURL)
	return TextReply{Text: text, Format: FormatMarkdownV2}
}

func styleMenuReply(columns int) MenuReply {
	styles := catalog.All()
	choices := make([]Choice, 0, len(styles))
	for _, s := range styles {
		choices = append(choices, Choice{Label: s.Label, Token: s.Token})
	}
	return MenuReply{Text: styleMenuText, Rows: partition(choices, columns)}
}

func partition(choices []Choice, n int) [][]Choice {
	if n <= 0 {
		n = 1
	}
	rows := make([][]Choice, 0, (len(choices)+n-1)/n)
	for i := 0; i < len(choices); i += n {
		end := i + n
		if end > len(choices) {
			end = len(choices)
		}
		rows = append(rows, choices[i:end])
	}
	return rows
}

func sizePromptReply() TextReply {
	return plain(fmt.Sprintf(
		"Send the avatar size in pixels as a whole number. Default is %d, minimum is 1.",
		session.DefaultImageSize))
}

func sizeNotIntegerReply(input string) TextReply {
	return plain(fmt.Sprintf("'%s' is not a whole number. Please send a size like %d.",
		input, session.DefaultImageSize))
}

func sizeNotPositiveReply(value int) TextReply {
	return plain(fmt.Sprintf("%d is not a valid size. The size must be at least 1.", value))
}

func sizeAcceptedReply(size int) TextReply {
	return plain(fmt.Sprintf("Done! Avatar size is now %d. Type /generate to create one.", size))
}

func seedPromptReply() TextReply {
	return plain(fmt.Sprintf(
		"Send a seed word. The same seed always gives the same avatar. Default is '%s'.",
		session.DefaultImageSeed))
}

func seedAcceptedReply(seed string) TextReply {
	return plain(fmt.Sprintf("Done! Seed is now '%s'. Type /generate to create an avatar.", seed))
}

func styleUnknownReply() TextReply {
	return plain(styleUnknown)
}

func imageReply(s session.Session, style string) ImageReply {
	return ImageReply{Request: RenderRequest{Style: style, Size: s.ImageSize, Seed: s.ImageSeed}}
}

func helpReply(commands []CommandInfo) TextReply {
	var b strings.Builder
	b.WriteString("I draw avatars with the DiceBear API.\n\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "%s - %s\n", c.Keyword, c.Description)
	}
	b.WriteString("\nPick a style from the menu after /generate and the avatar is sent right away.")
	return plain(b.String())
}

func unrecognizedReply(text string) TextReply {
	return plain(fmt.Sprintf(
		"Sorry, but '%s' it's not a defined command. Please use the menu, or just type /generate", text))
}

func internalErrorReply() TextReply {
	return plain(internalErrMsg)
}

func plain(text string) TextReply {
	return TextReply{Text: text, Format: FormatPlain}
}
