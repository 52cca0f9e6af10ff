package cache

var staticHashCache = NewCache[string, string]()

func GetStaticHash(path string) (string, bool) {
	return staticHashCache.Get(path)
}

func SetStaticHash(path, hash string) {
	staticHashCache.Set(path, hash)
}
