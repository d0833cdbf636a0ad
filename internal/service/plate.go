package service

import (
	"fmt"
	"regexp"
	"strings"
)

// PlateNormalizer chuẩn hóa biển số thô về dạng chính tắc theo danh sách grammar
// được cấu hình tường minh. Các biến thể định dạng biển số không còn rải rác
// mỗi nơi một regex: muốn thêm/bớt định dạng thì sửa cấu hình PLATE_GRAMMARS.
// Hàm thuần, không I/O, không side effect.
type PlateNormalizer struct {
	grammars []plateGrammar
}

type plateGrammar struct {
	name string
	re   *regexp.Regexp
}

// NewPlateNormalizer nhận danh sách tên grammar và bảng chữ cái cho phần chữ.
// Grammar hỗ trợ:
//   - "digits4":     đúng 4 chữ số ASCII
//   - "digits4cyr3": 4 chữ số + 3 chữ cái in hoa thuộc alphabet cấu hình
func NewPlateNormalizer(grammarNames []string, alphabet string) (*PlateNormalizer, error) {
	if len(grammarNames) == 0 {
		return nil, fmt.Errorf("cần ít nhất một grammar biển số")
	}

	var grammars []plateGrammar
	for _, name := range grammarNames {
		name = strings.TrimSpace(name)
		switch name {
		case "digits4":
			grammars = append(grammars, plateGrammar{
				name: name,
				re:   regexp.MustCompile(`^[0-9]{4}$`),
			})
		case "digits4cyr3":
			if alphabet == "" {
				return nil, fmt.Errorf("grammar '%s' cần bảng chữ cái khác rỗng", name)
			}
			re, err := regexp.Compile(`^[0-9]{4}[` + regexp.QuoteMeta(alphabet) + `]{3}$`)
			if err != nil {
				return nil, fmt.Errorf("lỗi biên dịch grammar '%s': %w", name, err)
			}
			grammars = append(grammars, plateGrammar{name: name, re: re})
		default:
			return nil, fmt.Errorf("grammar biển số không được hỗ trợ: '%s'", name)
		}
	}
	return &PlateNormalizer{grammars: grammars}, nil
}

// Normalize cắt khoảng trắng, viết hoa, bỏ ký tự phân cách rồi khớp lần lượt
// từng grammar. Không grammar nào khớp thì trả InvalidFormatError kèm đầu vào
// và danh sách grammar đã thử. Idempotent: Normalize(Normalize(p)) == Normalize(p).
func (n *PlateNormalizer) Normalize(raw string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "", "-", "", ".", "").Replace(s)

	if s != "" {
		for _, g := range n.grammars {
			if g.re.MatchString(s) {
				return s, nil
			}
		}
	}
	return "", &InvalidFormatError{Input: raw, GrammarsTried: n.GrammarNames()}
}

func (n *PlateNormalizer) GrammarNames() []string {
	names := make([]string, len(n.grammars))
	for i, g := range n.grammars {
		names[i] = g.name
	}
	return names
}
