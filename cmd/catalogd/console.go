// ABOUTME: Interactive local edit session for operators without a transport
// ABOUTME: Drives the session state machine over stdin, rendering keyboards as numbered choices

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/peakform/catalogd/internal/session"
)

// consoleChatID is the local operator's conversation key. The authorizer
// always admits it; transport-side admin gating does not apply to a shell
// the operator already controls.
const consoleChatID int64 = 0

func runConsole() {
	_, svc, cleanup, _ := mustOpenCatalog(true)
	defer cleanup()

	router := session.NewRouter(svc, func(int64) bool { return true }, nil)
	defer router.Close()

	fmt.Println("catalogd console. Pick a button by number; other input:")
	fmt.Println("  <text>        send text (names for add/rename)")
	fmt.Println("  :media <ref>  send a media reference")
	fmt.Println("  :cancel       cancel the current edit")
	fmt.Println("  :menu         back to the root menu")
	fmt.Println("  :quit         exit")
	fmt.Println()

	reply, _ := router.Start(consoleChatID)
	buttons := render(reply)

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())

		var handled bool
		switch {
		case line == ":quit" || line == ":q":
			return
		case line == ":cancel":
			reply, handled = router.Cancel(consoleChatID)
		case line == ":menu":
			reply, handled = router.Start(consoleChatID)
		case strings.HasPrefix(line, ":media "):
			ref := strings.TrimSpace(strings.TrimPrefix(line, ":media "))
			reply, handled = router.HandleMedia(ctx, consoleChatID, ref)
		default:
			if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(buttons) {
				reply, handled = router.HandleAction(ctx, consoleChatID, "", buttons[n-1].Action)
			} else {
				reply, handled = router.HandleText(ctx, consoleChatID, line)
			}
		}
		if !handled {
			continue
		}
		buttons = render(reply)
	}
}

// render prints a reply and returns the flattened button list so choices can
// be picked by number.
func render(reply session.Reply) []session.Button {
	if reply.Alert != "" {
		color.Yellow("! %s", reply.Alert)
	}
	if reply.Text != "" {
		fmt.Println(reply.Text)
	}
	var buttons []session.Button
	for _, row := range reply.Keyboard {
		for _, b := range row {
			buttons = append(buttons, b)
			color.Cyan("  [%d] %s", len(buttons), b.Label)
		}
	}
	return buttons
}
