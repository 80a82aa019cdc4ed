package label

// Combined multilingual stop-word list (English + Korean). Domain words
// that appear in nearly every note ("study", "연구") are included so
// they never become labels.
var stopWords = map[string]bool{}

func init() {
	words := []string{
		// English
		"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with",
		"by", "from", "as", "is", "was", "are", "were", "been", "be", "have", "has", "had",
		"do", "does", "did", "will", "would", "could", "should", "may", "might", "must",
		"this", "that", "these", "those", "it", "its", "we", "our", "they", "their", "them",
		"can", "also", "more", "how", "what", "which", "who", "when", "where", "why",
		"using", "use", "used", "based", "through", "between", "into", "such", "than",
		"study", "research", "paper", "results", "findings", "analysis", "data", "method",
		// Korean
		"및", "등", "를", "을", "이", "가", "은", "는", "에", "의", "로", "으로", "와", "과",
		"하는", "있는", "되는", "한", "된", "수", "것", "대한", "통해", "위해", "대해",
		"연구", "기술", "위한", "사용", "제안", "보여", "제시", "기반", "활용", "가능",
		"사용자", "논문", "시스템", "인터페이스", "사람", "정보", "방법", "결과",
		"모델", "분석", "설계", "개발", "평가", "실험", "참여자", "프로세스",
	}
	for _, w := range words {
		stopWords[w] = true
	}
}

// particles are Korean postpositions stripped from the end of Hangul
// tokens before term counting. Longer particles come first so e.g.
// "으로서" wins over "로".
var particles = []string{
	"으로서", "이라는", "에서", "으로", "까지", "부터", "라는",
	"이라", "와", "과", "을", "를", "이", "가", "은", "는",
	"에", "의", "로", "도", "만", "라", "란",
}
