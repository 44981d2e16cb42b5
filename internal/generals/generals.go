package generals

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/samber/lo"
)

var ErrNotEnoughGenerals = errors.New("not enough generals")

// Pool is the catalog of generals a draft can draw from.
type Pool struct {
	names []string
}

// NewPool builds a catalog from names, dropping blanks and duplicates while
// keeping first-seen order.
func NewPool(names []string) *Pool {
	names = lo.Uniq(lo.Compact(names))
	return &Pool{names: names}
}

// Default is the standard 1v1 catalog.
func Default() *Pool {
	return NewPool(standard)
}

func (p *Pool) Names() []string { return slices.Clone(p.names) }

func (p *Pool) Len() int { return len(p.names) }

// Random draws n distinct generals not in banned, in random order.
func (p *Pool) Random(rng *rand.Rand, n int, banned []string) ([]string, error) {
	candidates := lo.Without(p.names, banned...)
	if len(candidates) < n {
		return nil, fmt.Errorf("%w: want %d, have %d after bans", ErrNotEnoughGenerals, n, len(candidates))
	}
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	return candidates[:n], nil
}

var standard = []string{
	"caocao", "simayi", "xiahoudun", "zhangliao", "xuchu", "guojia", "zhenji",
	"liubei", "guanyu", "zhangfei", "zhugeliang", "zhaoyun", "machao", "huangyueying",
	"sunquan", "ganning", "lvmeng", "huanggai", "zhouyu", "daqiao", "luxun", "sunshangxiang",
	"huatuo", "lvbu", "diaochan",
	"xiahouyuan", "caoren", "huangzhong", "weiyan", "xiaoqiao", "zhoutai", "zhangjiao", "yuji",
	"dianwei", "xunyu", "pangtong", "wolong", "taishici", "yuanshao", "yanliangwenchou", "pangde",
	"menghuo", "zhurong", "xuhuang", "sunjian", "lusu", "dongzhuo", "jiaxu", "caopi", "dengai",
	"zhanghe", "jiangwei", "liushan", "sunce", "zhangzhaozhanghong", "caiwenji", "zuoci",
}
