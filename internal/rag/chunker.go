package rag

// SplitText splits text into overlapping chunks by rune count.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 {
		size = 1000
	}
	if overlap >= size {
		overlap = size / 2
	}
	var chunks []string
	runes := []rune(text)
	for i := 0; i < len(runes); {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		// the last window already covers the tail, a further step would
		// only re-emit part of it
		if end == len(runes) {
			break
		}
		i += size - overlap
	}
	return chunks
}

// EstimateTokens approximates token count as one token per four characters.
func EstimateTokens(text string) int {
	return len(text) / 4
}
