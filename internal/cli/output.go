// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jeremyhahn/go-passkey/pkg/passkey"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintUserList prints a list of users with their passkey counts
func (p *Printer) PrintUserList(users []*passkey.User) error {
	switch p.format {
	case OutputFormatJSON:
		userList := make([]map[string]interface{}, len(users))
		for i, u := range users {
			userList[i] = map[string]interface{}{
				"id":       u.ID,
				"username": u.Username,
				"passkeys": len(u.Devices),
				"created":  u.CreatedAt.Format(time.RFC3339),
			}
		}
		return p.printJSON(map[string]interface{}{"users": userList})
	case OutputFormatText:
		if len(users) == 0 {
			fmt.Fprintln(p.writer, "No users registered.")
			return nil
		}
		fmt.Fprintln(p.writer, "Registered Users:")
		for _, u := range users {
			fmt.Fprintf(p.writer, "  %-24s passkeys=%d created=%s\n",
				u.Username, len(u.Devices), u.CreatedAt.Format("2006-01-02"))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintUser prints a single user record with its devices
func (p *Printer) PrintUser(user *passkey.User) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(user)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Username: %s\n", user.Username)
		fmt.Fprintf(p.writer, "ID:       %s\n", user.ID)
		fmt.Fprintf(p.writer, "Created:  %s\n", user.CreatedAt.Format(time.RFC3339))
		fmt.Fprintf(p.writer, "Passkeys: %d\n", len(user.Devices))
		for i, d := range user.Devices {
			fmt.Fprintf(p.writer, "  [%d] id=%s counter=%d created=%s\n",
				i, d.CredentialID, d.Counter, d.CreatedAt.Format("2006-01-02"))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSuccess prints a success message
func (p *Printer) PrintSuccess(message string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status":  "success",
			"message": message,
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, message)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
