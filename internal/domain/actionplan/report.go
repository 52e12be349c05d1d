package actionplan

import (
	"fmt"
	"strings"
	"time"
)

const rule = "--------------------------------"

// Report formats the plan as the plain-text management sheet.
func Report(p Plan, created time.Time) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("【店長】行動目標評価 アクションプラン管理シート")
	line(rule)
	line("店舗名：%s", p.StoreName)
	line("氏　名：%s", p.ManagerName)
	line(rule)
	line("■ ビジョン共有")
	line("[ブロック] %s", p.VisionBlock)
	line("[エリア　] %s", p.VisionArea)
	line("[店　舗　] %s", p.VisionShop)
	line("")
	line("■ 現状分析・課題")
	line("[現状分析]")
	line("%s", p.CurrentAnalysis)
	line("")
	line("[課題]")
	line("%s", p.Issues)
	line("")
	line("■ 達成ゴール (到達点)")
	line("%s", p.Goal)
	line("")
	line("■ 課題解決・ゴール達成に向けたアクションプラン")
	for _, q := range []struct{ label, text string }{
		{"第1Q (7~9月)", p.PlanQ1},
		{"第2Q (10~12月)", p.PlanQ2},
		{"第3Q (1~3月)", p.PlanQ3},
		{"第4Q (4~6月)", p.PlanQ4},
	} {
		line("[%s]", q.label)
		line("%s", q.text)
		line("")
	}
	line("■ 最終結果")
	line("1. %s", p.FinalResult1)
	line("2. %s", p.FinalResult2)
	line("3. %s", p.FinalResult3)
	line(rule)
	fmt.Fprintf(&b, "作成日: %s", created.Format("2006/1/2"))
	return b.String()
}
