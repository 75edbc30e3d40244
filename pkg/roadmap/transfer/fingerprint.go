package transfer

import (
	"math/bits"
	"strings"
	"unicode"

	"github.com/go-dedup/simhash"
)

// DuplicateThreshold 标题指纹汉明距离 <= 该值视为疑似重复
const DuplicateThreshold = 3

// titleFeatures 实现 simhash.FeatureSet，使用字符级 bigram 特征
type titleFeatures struct {
	text string
}

// GetFeatures 提取标题特征；短标题额外加入单字符特征
func (t titleFeatures) GetFeatures() []simhash.Feature {
	runes := []rune(strings.ToLower(strings.TrimSpace(t.text)))
	if len(runes) == 0 {
		return []simhash.Feature{}
	}

	features := make([]simhash.Feature, 0, len(runes))
	for i := 0; i < len(runes)-1; i++ {
		r1, r2 := runes[i], runes[i+1]
		if separator(r1) || separator(r2) {
			continue
		}
		features = append(features, simhash.NewFeature([]byte(string([]rune{r1, r2}))))
	}
	if len(runes) < 4 {
		for _, r := range runes {
			if !separator(r) {
				features = append(features, simhash.NewFeature([]byte(string(r))))
			}
		}
	}
	return features
}

func separator(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r)
}

// Fingerprint returns the 64-bit SimHash of a title.
func Fingerprint(title string) uint64 {
	return simhash.NewSimhash().GetSimhash(titleFeatures{text: title})
}

// Distance is the Hamming distance between two fingerprints (0-64).
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
