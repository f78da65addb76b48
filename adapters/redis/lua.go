package redisstore

// luaAppendEvent atomically increments the per-stream sequence, embeds
// it into the event JSON, appends the event to the stream's ZSET
// (score=seq), and updates the stream state's last_event_seq field if
// the state exists.
//
// KEYS[1] = seq key
// KEYS[2] = events zset key
// KEYS[3] = stream state key (JSON string)
// ARGV[1] = event JSON string
//
// Returns: sequence (number)
const luaAppendEvent = `
local seq = redis.call('INCR', KEYS[1])

local ev = cjson.decode(ARGV[1])
ev['sequence_num'] = seq
local evjson = cjson.encode(ev)

redis.call('ZADD', KEYS[2], seq, evjson)

local stjson = redis.call('GET', KEYS[3])
if stjson then
  local st = cjson.decode(stjson)
  st['last_event_seq'] = seq
  redis.call('SET', KEYS[3], cjson.encode(st))
end

return seq
`
