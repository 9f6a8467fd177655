package redis

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	redigo "github.com/gomodule/redigo/redis"

	"goshortlink/cache/cacher"
	"goshortlink/repository"
)

const (
	defaultSETEXTimeout = 30 * time.Second // to avoid deadlock
	setexKey            = "setex:%s"
)

// gob cannot encode nil pointers inside a struct, so the optional expiry is
// flattened into a value plus a presence flag.
type serializable struct {
	UrlID     uint
	LongUrl   string
	HasExpiry bool
	ExpiresAt time.Time
	Errmsg    string
}

func entry2serializable(entry *cacher.Entry) serializable {
	s := serializable{
		UrlID:   entry.UrlID,
		LongUrl: entry.LongUrl,
	}
	if entry.ExpiresAt != nil {
		s.HasExpiry = true
		s.ExpiresAt = *entry.ExpiresAt
	}
	if entry.Err != nil {
		s.Errmsg = entry.Err.Error()
	}
	return s
}

func serializable2entry(value serializable) cacher.Entry {
	entry := cacher.Entry{
		UrlID:   value.UrlID,
		LongUrl: value.LongUrl,
	}
	if value.HasExpiry {
		expiresAt := value.ExpiresAt
		entry.ExpiresAt = &expiresAt
	}
	if value.Errmsg != "" {
		err := errors.New(value.Errmsg)
		if value.Errmsg == repository.ErrRecordNotFound.Error() {
			err = repository.ErrRecordNotFound
		}
		entry.Err = err
	}
	return entry
}

func serialize(entry *cacher.Entry) (*bytes.Buffer, error) {
	var buffer bytes.Buffer
	s := entry2serializable(entry)
	err := gob.NewEncoder(&buffer).Encode(s)
	return &buffer, err
}

func deserialize(valBytes []byte) (*cacher.Entry, error) {
	var s serializable
	err := gob.NewDecoder(bytes.NewReader(valBytes)).Decode(&s)
	entry := serializable2entry(s)
	return &entry, err
}

type redis struct {
	pool *redigo.Pool
}

func New(host string, port int) cacher.Engine {
	pool := &redigo.Pool{
		Dial: func() (redigo.Conn, error) {
			c, err := redigo.Dial("tcp", fmt.Sprintf("%s:%d", host, port))
			if err != nil {
				return nil, err
			}
			return c, nil
		},

		// Periodic check
		TestOnBorrow: func(c redigo.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
	return &redis{pool}
}

func (r *redis) Get(code string) (*cacher.Entry, bool, error) {
	reply, err := r.do("GET", code)
	if reply == nil && err == nil {
		return nil, false, cacher.ErrEntryNotFound
	}
	if err != nil {
		return nil, false, err
	}

	data, err := redigo.Bytes(reply, err)
	if err != nil {
		return nil, false, err
	}
	entry, err := deserialize(data)
	if err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

func (r *redis) Set(code string, entry *cacher.Entry, expiration time.Duration) error {
	buffer, err := serialize(entry)
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}
	if _, err := r.do("SET", code, buffer.Bytes(), "EX", uint64(expiration.Seconds())); err != nil {
		return fmt.Errorf("call SET: %w", err)
	}
	return nil
}

func (r *redis) Delete(code string) error {
	reply, err := r.do("DEL", code)
	if err != nil {
		return err
	}
	ok, err := redigo.Bool(reply, err)
	if err != nil {
		return err
	}
	if !ok {
		return cacher.ErrEntryNotFound
	}
	return nil
}

func (r *redis) Check(code string) (bool, error) {
	script := `
local ok = redis.call('SETNX', KEYS[1], 1)
if ok == 0 then
	return 0
end

ok = redis.call('EXPIRE', KEYS[1], ARGV[1])
if ok == 0 then
	return -1
end

return ok
`
	keys := []interface{}{fmt.Sprintf(setexKey, code)}
	args := []interface{}{uint64(defaultSETEXTimeout.Seconds())}
	reply, err := r.lua(script, keys, args)

	if err != nil {
		return false, err
	}
	ret, err := redigo.Int(reply, err)
	if err != nil {
		return false, err
	}

	switch ret {
	case 1:
		return true, nil
	case 0:
		return false, nil
	default:
		return false, cacher.ErrUnexpectedError
	}
}

func (r *redis) Uncheck(code string) error {
	reply, err := r.do("DEL", fmt.Sprintf(setexKey, code))
	if err != nil {
		return err
	}
	ok, err := redigo.Bool(reply, err)
	if err != nil {
		return err
	}
	if !ok {
		return cacher.ErrEntryNotFound
	}
	return nil
}

func (r *redis) do(commandName string, args ...interface{}) (reply interface{}, err error) {
	c := r.pool.Get()
	defer c.Close()
	return c.Do(commandName, args...)
}

func (r *redis) lua(script string, keys []interface{}, args []interface{}) (interface{}, error) {
	c := r.pool.Get()
	defer c.Close()
	lua := redigo.NewScript(len(keys), script)
	return lua.Do(c, append(keys, args...)...)
}
