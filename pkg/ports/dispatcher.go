package ports

// Enhancer decorates a Store, returning a store with the same contract.
type Enhancer func(Store) Store

// Compose chains enhancers so that the first one is the outermost.
func Compose(enhancers ...Enhancer) Enhancer {
	return func(s Store) Store {
		for i := len(enhancers) - 1; i >= 0; i-- {
			if enhancers[i] != nil {
				s = enhancers[i](s)
			}
		}
		return s
	}
}
