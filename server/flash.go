package server

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
)

const flashCookieName = "flash"

// flashMessage is a one-shot notice surfaced on the next HTML render.
type flashMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func setFlash(c *fiber.Ctx, kind, message string) {
	payload, err := json.Marshal(flashMessage{Kind: kind, Message: message})
	if err != nil {
		return
	}

	c.Cookie(&fiber.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(string(payload)),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})
}

// popFlash reads and clears the flash cookie.
func popFlash(c *fiber.Ctx) *flashMessage {
	raw := c.Cookies(flashCookieName)
	if raw == "" {
		return nil
	}

	c.Cookie(&fiber.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})

	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return nil
	}

	var msg flashMessage
	if err := json.Unmarshal([]byte(decoded), &msg); err != nil {
		return nil
	}
	return &msg
}
