package redis

const (
	// findOrCreateHostScript resolves a host name to its id, allocating a new id on first use.
	// Running as a script makes the lookup and insert one step for concurrent callers.
	findOrCreateHostScript = `
local names_key = KEYS[1]     -- burner:hosts:names
local seq_key = KEYS[2]       -- burner:hosts:seq

local name = ARGV[1]
local created_at = ARGV[2]
local host_prefix = ARGV[3]   -- burner:host:

local existing = redis.call('HGET', names_key, name)
if existing then
  return tonumber(existing)
end

local id = redis.call('INCR', seq_key)
redis.call('HSET', names_key, name, id)
redis.call('HSET', host_prefix .. id,
  'id', id,
  'name', name,
  'is_active', '1',
  'created_at', created_at
)

return id
`

	// applyBucketsScript adds every delta of a batch to its daily bucket.
	// ARGV is the bucket key prefix followed by (date, score, host_id, seconds) groups.
	applyBucketsScript = `
local dates_key = KEYS[1]     -- burner:bucket:dates
local bucket_prefix = ARGV[1] -- burner:bucket:

local applied = 0
for i = 2, #ARGV, 4 do
  local date = ARGV[i]
  redis.call('HINCRBY', bucket_prefix .. date, ARGV[i + 2], ARGV[i + 3])
  redis.call('ZADD', dates_key, ARGV[i + 1], date)
  applied = applied + 1
end

return applied
`

	// deleteBucketsScript removes whole dates up to a score bound and reports how many
	// (host, date) buckets went with them.
	deleteBucketsScript = `
local dates_key = KEYS[1]     -- burner:bucket:dates
local bucket_prefix = ARGV[1] -- burner:bucket:
local max_score = ARGV[2]

local dates = redis.call('ZRANGEBYSCORE', dates_key, '-inf', max_score)
local deleted = 0
for _, date in ipairs(dates) do
  local bucket_key = bucket_prefix .. date
  deleted = deleted + redis.call('HLEN', bucket_key)
  redis.call('DEL', bucket_key)
  redis.call('ZREM', dates_key, date)
end

return deleted
`
)
