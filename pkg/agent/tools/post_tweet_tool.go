package tools

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"

	"github.com/EternisAI/enchanted-assistant/pkg/agent/types"
	"github.com/EternisAI/enchanted-assistant/pkg/twitter"
)

const PostTweetToolName = "post_tweet"

// TweetExecutor runs one post/reply/delete action and renders it as text.
type TweetExecutor interface {
	Execute(ctx context.Context, req twitter.Request) string
}

type PostTweetTool struct {
	Logger *log.Logger
	Client TweetExecutor
}

func NewPostTweetTool(logger *log.Logger, client TweetExecutor) *PostTweetTool {
	return &PostTweetTool{Logger: logger, Client: client}
}

func (t *PostTweetTool) Execute(ctx context.Context, inputs map[string]any) (types.ToolResult, error) {
	action, err := types.StringArg(inputs, "action")
	if err != nil {
		return nil, err
	}
	text, err := types.StringArg(inputs, "tweet_text")
	if err != nil {
		return nil, err
	}
	tweetID, err := types.StringArg(inputs, "tweet_id")
	if err != nil {
		return nil, err
	}

	t.Logger.Info("Tweet action", "action", action, "has_text", text != "", "tweet_id", tweetID)
	content := t.Client.Execute(ctx, twitter.Request{
		Action:  action,
		Text:    text,
		TweetID: tweetID,
	})
	return types.TextToolResult(PostTweetToolName, content, inputs), nil
}

func (t *PostTweetTool) Definition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: openai.FunctionDefinitionParam{
			Name: PostTweetToolName,
			Description: param.NewOpt(
				"Post, reply to, or delete a tweet on the user's X account. To delete, pass either the tweet id or text contained in one of the user's recent tweets.",
			),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"action": map[string]any{
						"type":        "string",
						"enum":        []string{string(twitter.ActionPost), string(twitter.ActionDelete), string(twitter.ActionReply)},
						"description": "The action to perform",
					},
					"tweet_text": map[string]string{
						"type":        "string",
						"description": "Text of the tweet (post, reply) or text to search for (delete). Truncated to 280 characters.",
					},
					"tweet_id": map[string]string{
						"type":        "string",
						"description": "Tweet id to reply to or delete",
					},
				},
				"required": []string{"action"},
			},
		},
	}
}

var _ Tool = &PostTweetTool{}
