package services

// Shared test doubles for the search, fetch and completion capabilities.

type fakeSearcher struct {
	fn func(query string, maxResults int) ([]SerpResult, error)
}

func (f *fakeSearcher) Search(query string, maxResults int) ([]SerpResult, error) {
	return f.fn(query, maxResults)
}

type fakeCompleter struct {
	calls int
	reply string
	err   error
}

func (f *fakeCompleter) Complete(systemPrompt, userPrompt string, jsonMode bool) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeFetcher struct {
	body      string
	reachable bool
}

func (f *fakeFetcher) Fetch(url string) string   { return f.body }
func (f *fakeFetcher) Reachable(url string) bool { return f.reachable }
