package notifications

import (
	"fmt"

	"murmur/internal/i18n"
	"murmur/internal/models"
)

// Action is an affordance offered next to a notification.
type Action struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Method string `json:"method"`
	Href   string `json:"href"`
}

// Rendered is the display form of a notification.
type Rendered struct {
	MessageKey string   `json:"message_key"`
	Message    string   `json:"message"`
	Quote      string   `json:"quote,omitempty"`
	Actions    []Action `json:"actions"`
}

// View is a notification with its rendering, as listed to the recipient.
type View struct {
	models.Notification
	Rendered
}

// Render maps n to message text and actions using the default catalog.
func Render(n *models.Notification) Rendered {
	return RenderWith(i18n.Default(), n)
}

// RenderWith renders n with cat.
func RenderWith(cat *i18n.Catalog, n *models.Notification) Rendered {
	key, quote := messageKey(n)
	r := Rendered{
		MessageKey: key,
		Message:    cat.T("notifications." + key),
		Quote:      quote,
		Actions:    []Action{},
	}

	action := func(key, method, href string) {
		r.Actions = append(r.Actions, Action{Key: key, Label: cat.T("actions." + key), Method: method, Href: href})
	}
	switch key {
	case "follow_request":
		action("accept", "POST", fmt.Sprintf("/api/follows/%d/accept", n.SourceUserID))
		action("decline", "POST", fmt.Sprintf("/api/follows/%d/reject", n.SourceUserID))
	case "message":
		action("reply", "GET", "/api/chat/everyone")
	}
	if n.PostID != nil {
		action("view_post", "GET", fmt.Sprintf("/api/posts/%d", *n.PostID))
	} else if n.SourceUser.Username != "" {
		action("view_profile", "GET", "/api/users/"+n.SourceUser.Username)
	}
	return r
}

func messageKey(n *models.Notification) (key, quote string) {
	switch n.Type {
	case models.NotificationLike:
		if n.CommentID != nil || n.ExtraData != "" {
			return "like_comment", n.ExtraData
		}
		return "like_post", ""
	case models.NotificationRepost:
		return "repost", ""
	case models.NotificationComment:
		return "comment", n.ExtraData
	case models.NotificationFavorite:
		return "favorite", ""
	case models.NotificationMessage:
		return "message", n.ExtraData
	case models.NotificationFollow:
		switch n.ExtraData {
		case models.FollowExtraPending:
			return "follow_request", ""
		case models.FollowExtraAccepted:
			return "follow_accepted", ""
		case models.FollowExtraRejected:
			return "follow_rejected", ""
		}
		return "follow", ""
	}
	return "default", ""
}

// Views renders a page of notifications.
func Views(list []models.Notification) []View {
	out := make([]View, 0, len(list))
	for i := range list {
		out = append(out, View{Notification: list[i], Rendered: Render(&list[i])})
	}
	return out
}
