// Package resilience groups the fault tolerance helpers used around the
// profile store and the chat platform bots.
//
//   - circuitbreaker: gobreaker wrappers, one per bot and one around the database
//   - retry: exponential backoff with jitter for store reads and bot sends
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.BotConfig("discord-main"))
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return bot.SendGroup(ctx, groupID, message)
//	})
//
//	err := retry.WithBackoff(ctx, retry.DBConfig(), func() error {
//	    profiles, err = repo.Get(ctx, repository.ByID(id))
//	    return err
//	})
package resilience
