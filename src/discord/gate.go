package discord

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	denyRole     = "You don't have permission to use this command."
	cooldownTrim = 1024
)

// HasRole checks whether member holds roleID. An empty roleID always passes.
func HasRole(member *discordgo.Member, roleID string) bool {
	if roleID == "" {
		return true
	}
	if member == nil {
		return false
	}
	for _, role := range member.Roles {
		if role == roleID {
			return true
		}
	}
	return false
}

// Cooldown allows each user one command per interval.
type Cooldown struct {
	users map[string]time.Time
	mu    sync.Mutex
	limit time.Duration
	now   func() time.Time
}

func NewCooldown(limit time.Duration) *Cooldown {
	return &Cooldown{
		users: make(map[string]time.Time),
		limit: limit,
		now:   time.Now,
	}
}

// Allow records a use by userID if the interval has passed and otherwise
// reports how long the user still has to wait.
func (c *Cooldown) Allow(userID string) (bool, time.Duration) {
	if c == nil || c.limit <= 0 {
		return true, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if last, ok := c.users[userID]; ok {
		if elapsed := now.Sub(last); elapsed < c.limit {
			return false, c.limit - elapsed
		}
	}
	c.users[userID] = now
	if len(c.users) > cooldownTrim {
		c.trim(now)
	}
	return true, 0
}

func (c *Cooldown) trim(now time.Time) {
	for user, last := range c.users {
		if now.Sub(last) >= c.limit {
			delete(c.users, user)
		}
	}
}

// Gate applies the role requirement and the per-user cooldown before a
// command reaches the dispatcher.
type Gate struct {
	RoleID   string
	Cooldown *Cooldown
}

// Check returns the denial message and false when the user may not run a
// command now.
func (g Gate) Check(userID string, member *discordgo.Member) (string, bool) {
	if !HasRole(member, g.RoleID) {
		return denyRole, false
	}
	if ok, wait := g.Cooldown.Allow(userID); !ok {
		seconds := int(math.Ceil(wait.Seconds()))
		return fmt.Sprintf("⏱️ Slow down! Try again in %d second(s).", seconds), false
	}
	return "", true
}
