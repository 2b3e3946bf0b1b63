// Package instagram wraps the Meta Graph API surface used for Instagram
// messaging and comment monitoring. The client is a thin request/response
// mapper: no retries, no caching, no token management.
package instagram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const DefaultBaseURL = "https://graph.instagram.com/v21.0"

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient() *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type Comment struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	From      User   `json:"from"`
	Timestamp string `json:"timestamp"`
}

type Media struct {
	ID        string `json:"id"`
	Caption   string `json:"caption"`
	MediaType string `json:"media_type"`
	MediaURL  string `json:"media_url"`
	Permalink string `json:"permalink"`
	Timestamp string `json:"timestamp"`
}

type Profile struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	FollowersCount int    `json:"followers_count"`
	MediaCount     int    `json:"media_count"`

	// Relationship flags. nil means the platform could not determine the
	// relationship; callers must treat that as unknown, never as false.
	IsUserFollowBusiness *bool `json:"is_user_follow_business"`
	IsBusinessFollowUser *bool `json:"is_business_follow_user"`
}

// FollowCheck is the result of a live relationship lookup.
type FollowCheck struct {
	IsFollower *bool
	Profile    *Profile
}

type graphError struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
	} `json:"error"`
}

func (c *Client) postJSON(path string, body any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Post(c.BaseURL+path, "application/json", bytes.NewReader(buf))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeUpstreamError(resp)
	}
	return nil
}

func (c *Client) getJSON(path string, query url.Values, out any) error {
	resp, err := c.HTTP.Get(c.BaseURL + path + "?" + query.Encode())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeUpstreamError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeUpstreamError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	var ge graphError
	if err := json.Unmarshal(raw, &ge); err == nil && ge.Error.Message != "" {
		return &UpstreamError{
			StatusCode: resp.StatusCode,
			Code:       ge.Error.Code,
			Subcode:    ge.Error.ErrorSubcode,
			Message:    ge.Error.Message,
		}
	}
	return &UpstreamError{StatusCode: resp.StatusCode, Message: string(raw)}
}

// SendPrivateReply sends a DM in response to a specific comment. Usable
// only within the platform's reply window after the comment was created.
func (c *Client) SendPrivateReply(accessToken, commentID, text string) error {
	body := map[string]any{
		"recipient":    map[string]string{"comment_id": commentID},
		"message":      map[string]string{"text": text},
		"access_token": accessToken,
	}
	return c.postJSON("/me/messages", body)
}

// SendDirectMessage sends a plain text DM to a user.
func (c *Client) SendDirectMessage(accessToken, userID, text string) error {
	return c.SendDirectMessageWithQuickReplies(accessToken, userID, text, nil)
}

// QuickReplyOption is one tappable suggestion chip attached to a text DM.
type QuickReplyOption struct {
	ContentType string `json:"content_type"`
	Title       string `json:"title"`
	Payload     string `json:"payload"`
}

// SendDirectMessageWithQuickReplies sends a text DM, optionally with quick
// reply chips.
func (c *Client) SendDirectMessageWithQuickReplies(accessToken, userID, text string, replies []QuickReplyOption) error {
	message := map[string]any{"text": text}
	if len(replies) > 0 {
		message["quick_replies"] = replies
	}
	body := map[string]any{
		"recipient":    map[string]string{"id": userID},
		"message":      message,
		"access_token": accessToken,
	}
	return c.postJSON("/me/messages", body)
}

// SendTemplateMessage sends a generic button/card template DM. The payload
// shape is validated before anything goes on the wire.
func (c *Client) SendTemplateMessage(accessToken, userID string, payload TemplatePayload) error {
	if err := payload.Validate(); err != nil {
		return err
	}

	body := map[string]any{
		"recipient": map[string]string{"id": userID},
		"message": map[string]any{
			"attachment": map[string]any{
				"type":    "template",
				"payload": payload,
			},
		},
		"access_token": accessToken,
	}
	return c.postJSON("/me/messages", body)
}

// ReplyToComment posts a public reply under a comment.
func (c *Client) ReplyToComment(accessToken, commentID, text string) error {
	body := map[string]any{
		"message":      text,
		"access_token": accessToken,
	}
	return c.postJSON("/"+commentID+"/replies", body)
}

// GetProfile fetches a user's public profile fields.
func (c *Client) GetProfile(accessToken, userID string) (*Profile, error) {
	q := url.Values{}
	q.Set("fields", "id,username,name,profile_picture_url,followers_count,media_count")
	q.Set("access_token", accessToken)

	var p Profile
	if err := c.getJSON("/"+userID, q, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetFollowFlag asks the platform whether the user follows the business
// account. A nil IsFollower means the relationship could not be determined.
func (c *Client) GetFollowFlag(accessToken, userID string) (*FollowCheck, error) {
	q := url.Values{}
	q.Set("fields", "id,username,is_user_follow_business,is_business_follow_user")
	q.Set("access_token", accessToken)

	var p Profile
	if err := c.getJSON("/"+userID, q, &p); err != nil {
		return nil, err
	}
	return &FollowCheck{IsFollower: p.IsUserFollowBusiness, Profile: &p}, nil
}

type commentPage struct {
	Data []Comment `json:"data"`
}

// GetRecentComments fetches the comments on a media item. One HTTP call,
// no pagination follow-up.
func (c *Client) GetRecentComments(accessToken, mediaID string) ([]Comment, error) {
	q := url.Values{}
	q.Set("fields", "id,text,from,timestamp")
	q.Set("access_token", accessToken)

	var page commentPage
	if err := c.getJSON("/"+mediaID+"/comments", q, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

type mediaPage struct {
	Data []Media `json:"data"`
}

// GetUserMedia fetches the account's recent posts.
func (c *Client) GetUserMedia(accessToken, userID string, limit int) ([]Media, error) {
	q := url.Values{}
	q.Set("fields", "id,caption,media_type,media_url,thumbnail_url,timestamp,permalink")
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("access_token", accessToken)

	var page mediaPage
	if err := c.getJSON("/"+userID+"/media", q, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}
