// Package auth authenticates profile API callers.
//
// The chat front end that receives a user's bind/unbind commands mints a
// short-lived HS256 JWT describing the command's origin:
//
//	sub        chat user id
//	platform   discord | telegram | feishu | lark
//	bot_id     bot that received the command
//	guild_id   group the command was issued in, empty for direct messages
//	authority  integer permission level of the user in that group
//
// Middleware verifies the token and stores the resulting binding.Session in
// the request context.
package auth
