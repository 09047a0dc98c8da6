package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"time"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
)

// Feishu error codes that signal throttling.
const (
	feishuCodeRateLimited = 99991400
	feishuCodeTooFrequent = 230020
)

// Feishu limits
const maxFeishuMessageLength = 10000

// larkMessages is the subset of the im/v1 message service used for sending.
type larkMessages interface {
	Create(ctx context.Context, req *larkim.CreateMessageReq, options ...larkcore.RequestOptionFunc) (*larkim.CreateMessageResp, error)
}

// feishuMessage is one create-message call before the SDK request is built.
type feishuMessage struct {
	ReceiveIDType string
	Body          *larkim.CreateMessageReqBody
}

// newFeishuTextMessage builds a text message for receiveID. The content is
// the JSON object {"text": message}.
func newFeishuTextMessage(receiveIDType, receiveID, message string) (feishuMessage, error) {
	content, err := json.Marshal(map[string]string{
		"text": truncateMessage(message, maxFeishuMessageLength, truncationSuffix),
	})
	if err != nil {
		return feishuMessage{}, fmt.Errorf("marshal message content: %w", err)
	}
	return feishuMessage{
		ReceiveIDType: receiveIDType,
		Body: larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(receiveID).
			MsgType(larkim.MsgTypeText).
			Content(string(content)).
			Build(),
	}, nil
}

func (m feishuMessage) request() *larkim.CreateMessageReq {
	return larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(m.ReceiveIDType).
		Body(m.Body).
		Build()
}

// messageCreator sends one message and returns the platform response.
type messageCreator func(ctx context.Context, msg feishuMessage) (*larkim.CreateMessageResp, error)

func sdkCreator(messages larkMessages) messageCreator {
	return func(ctx context.Context, msg feishuMessage) (*larkim.CreateMessageResp, error) {
		return messages.Create(ctx, msg.request())
	}
}

// FeishuBot sends notifications through the Feishu/Lark open platform.
// Direct messages address the user's open_id; group messages address a
// chat_id.
type FeishuBot struct {
	id       string
	platform string
	create   messageCreator
}

// NewFeishuBot creates a Feishu or Lark bot from app credentials. platform
// is reported back as given so profiles bound on "lark" keep matching.
func NewFeishuBot(id, platform, appID, appSecret string) (*FeishuBot, error) {
	if appID == "" || appSecret == "" {
		return nil, errors.New("feishu app_id and app_secret are required")
	}
	var opts []lark.ClientOptionFunc
	if platform == PlatformLark {
		opts = append(opts, lark.WithOpenBaseUrl(lark.LarkBaseUrl))
	} else {
		platform = PlatformFeishu
	}
	client := lark.NewClient(appID, appSecret, opts...)
	return &FeishuBot{id: id, platform: platform, create: sdkCreator(client.Im.Message)}, nil
}

func (b *FeishuBot) ID() string       { return b.id }
func (b *FeishuBot) Platform() string { return b.platform }

// Mention returns the text-message mention tag for an open_id.
func (b *FeishuBot) Mention(userID string) string {
	return fmt.Sprintf(`<at user_id="%s"></at>`, html.EscapeString(userID))
}

// SendDirect messages the user by open_id. contextGroupID is unused.
func (b *FeishuBot) SendDirect(ctx context.Context, userID, message, contextGroupID string) ([]string, error) {
	return b.send(ctx, larkim.ReceiveIdTypeOpenId, userID, message)
}

// SendGroup posts message to the chat groupID.
func (b *FeishuBot) SendGroup(ctx context.Context, groupID, message string) ([]string, error) {
	return b.send(ctx, larkim.ReceiveIdTypeChatId, groupID, message)
}

func (b *FeishuBot) send(ctx context.Context, receiveIDType, receiveID, message string) ([]string, error) {
	msg, err := newFeishuTextMessage(receiveIDType, receiveID, message)
	if err != nil {
		return nil, err
	}

	resp, err := b.create(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	if !resp.Success() {
		return nil, fmt.Errorf("send message: %w", feishuError(b.platform, resp))
	}
	if resp.Data == nil || resp.Data.MessageId == nil {
		return nil, nil
	}
	return []string{*resp.Data.MessageId}, nil
}

// feishuError converts a failed response into APIError or RateLimitError.
// Feishu reports most failures with HTTP 400 and a code in the body.
func feishuError(platform string, resp *larkim.CreateMessageResp) error {
	status := http.StatusBadRequest
	if resp.ApiResp != nil && resp.StatusCode != 0 {
		status = resp.StatusCode
	}
	if resp.Code == feishuCodeRateLimited || resp.Code == feishuCodeTooFrequent || status == http.StatusTooManyRequests {
		return &RateLimitError{
			Platform:   platform,
			RetryAfter: time.Second,
			Message:    resp.Msg,
		}
	}
	return &APIError{
		Platform:   platform,
		StatusCode: status,
		Code:       resp.Code,
		Message:    resp.Msg,
	}
}
