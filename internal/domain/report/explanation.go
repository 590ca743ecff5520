package report

import (
	"regexp"
	"strings"
)

// Unavailable is the explanation used when the analysis itself failed.
const Unavailable = "We had trouble analyzing your report. Please share this report with your doctor who can explain it to you in person."

var (
	explainStagePattern = regexp.MustCompile(`(?i)stage\s*(i{1,3}v?a?b?|[1-4][a-c]?)`)
	explainGradePattern = regexp.MustCompile(`(?i)grade\s*([1-3]|i{1,3})`)
)

// GeneratePatientExplanation builds a plain-language narrative of a report.
// Every section template carries its own leading separator, so the pieces
// are concatenated without a joiner. The narrative is keyword driven;
// entities are accepted so callers can pass the full analysis context.
func GeneratePatientExplanation(text string, reportType ReportType, risk RiskLevel, entities []Entity) string {
	lower := strings.ToLower(text)
	var b strings.Builder

	b.WriteString("📋 What is this report?\nThis is a " + strings.ToLower(string(reportType)) +
		". It's a medical test that doctors use to understand what's happening in your body.")

	writeFinding(&b, lower)
	writeStage(&b, lower)
	writeGrade(&b, lower)
	writeBiomarkers(&b, lower)
	writeAssessment(&b, risk)

	b.WriteString("\n\n💙 Remember:\nThis explanation is meant to help you understand your report better, but it's not a substitute for talking to your doctor. Write down any questions you have and bring them to your next appointment. You're not alone in this - your healthcare team is there to support you.")
	return b.String()
}

// writeFinding appends exactly one finding branch: malignant, benign,
// negative, then suspicious.
func writeFinding(b *strings.Builder, lower string) {
	switch {
	case containsAny(lower, []string{"carcinoma", "cancer", "malignant"}):
		b.WriteString("\n\n🔬 What did they find?\nThe test found cancer cells. This means some cells in your body are growing in a way they shouldn't. The good news is that finding it means doctors can now make a plan to treat it.")
		if strings.Contains(lower, "invasive ductal carcinoma") {
			b.WriteString("\n\nThe specific type found is called \"invasive ductal carcinoma\" - this is the most common type of breast cancer. \"Invasive\" means the cancer cells have started to spread from where they first appeared.")
		} else if strings.Contains(lower, "invasive") {
			b.WriteString("\n\nThe word \"invasive\" in your report means the abnormal cells have spread beyond where they first started. Your doctor will explain what this means for your treatment.")
		}
	case strings.Contains(lower, "benign"):
		b.WriteString("\n\n🔬 What did they find?\nGood news! The test found that the growth is \"benign\" - this means it is NOT cancer. Benign growths are usually not dangerous, but your doctor may still want to monitor it.")
	case containsAny(lower, []string{"negative", "normal", "no evidence"}):
		b.WriteString("\n\n🔬 What did they find?\nGood news! The test results appear normal or negative, which usually means no major problems were found. Your doctor will confirm this with you.")
	case containsAny(lower, []string{"suspicious", "atypical"}):
		b.WriteString("\n\n🔬 What did they find?\nThe test found some cells that look unusual. This doesn't definitely mean cancer, but your doctor will likely want to do more tests to be sure. Try not to worry - many suspicious findings turn out to be harmless.")
	}
}

// writeStage matches the captured token by substring: "I" without "II" or
// "IV", then "II", "III", "IV"/"4". "III" therefore lands in the "II"
// branch and bare digits 1-3 get no stage sentence.
func writeStage(b *strings.Builder, lower string) {
	m := explainStagePattern.FindStringSubmatch(lower)
	if m == nil {
		return
	}
	stage := strings.ToUpper(m[1])
	b.WriteString("\n\n📊 What does the stage mean?\nYour report mentions \"Stage " + stage + "\".")

	switch {
	case strings.Contains(stage, "I") && !strings.Contains(stage, "II") && !strings.Contains(stage, "IV"):
		b.WriteString(" This is an early stage, which is good news! Early stage usually means the cancer is small and hasn't spread far, making it easier to treat.")
	case strings.Contains(stage, "II"):
		b.WriteString(" This is an intermediate stage. The cancer may be a bit larger or may have started to spread to nearby areas, but there are still many good treatment options.")
	case strings.Contains(stage, "III"):
		b.WriteString(" This is a more advanced stage, meaning the cancer has grown larger or spread to nearby lymph nodes. Treatment is still possible, and your medical team will create a plan for you.")
	case strings.Contains(stage, "IV") || strings.Contains(stage, "4"):
		b.WriteString(" This is an advanced stage, meaning the cancer has spread to other parts of the body. While this is serious, there are still treatments available that can help manage the disease and maintain quality of life.")
	}
}

func writeGrade(b *strings.Builder, lower string) {
	m := explainGradePattern.FindStringSubmatch(lower)
	if m == nil {
		return
	}
	b.WriteString("\n\n📈 What does the grade mean?\nThe \"grade\" tells doctors how different the cancer cells look compared to normal cells.")

	switch strings.ToLower(m[1]) {
	case "1", "i":
		b.WriteString(" Grade 1 (low grade) means the cells look almost normal and usually grow slowly. This is generally favorable.")
	case "2", "ii":
		b.WriteString(" Grade 2 (moderate/intermediate) means the cells look somewhat different from normal and grow at a moderate pace.")
	case "3", "iii":
		b.WriteString(" Grade 3 (high grade) means the cells look very different from normal cells. These may grow faster, but modern treatments can still be very effective.")
	}
}

func writeBiomarkers(b *strings.Builder, lower string) {
	if containsAny(lower, []string{"er positive", "er:", "estrogen receptor"}) {
		b.WriteString("\n\n💊 About hormone receptors:\nYour report mentions \"ER\" (Estrogen Receptor). When it's \"positive,\" it means the cancer cells respond to the hormone estrogen. This is actually helpful because there are medications that can block estrogen and slow down the cancer.")
	}
	if !strings.Contains(lower, "her2") {
		return
	}
	switch {
	case containsAny(lower, []string{"her2 negative", "her2: negative", "her2: 1+", "her2: 0"}):
		b.WriteString("\n\nThe report shows \"HER2 negative.\" HER2 is a protein that can make cancer grow faster. Being negative means this protein is not fueling the cancer, which can be a good thing for treatment planning.")
	case containsAny(lower, []string{"her2 positive", "her2: 3+", "her2: positive"}):
		b.WriteString("\n\nThe report shows \"HER2 positive.\" HER2 is a protein that can make cancer grow faster. There are specific targeted drugs that work very well against HER2-positive cancers.")
	}
}

func writeAssessment(b *strings.Builder, risk RiskLevel) {
	b.WriteString("\n\n⚠️ Overall Assessment:")
	switch risk {
	case RiskHigh:
		b.WriteString(" Based on the findings, this report indicates a situation that needs prompt medical attention. Please don't panic - \"high risk\" means your doctors will prioritize your care and develop a treatment plan quickly. Many people with similar findings respond well to treatment.")
	case RiskMedium:
		b.WriteString(" The findings suggest some concerns that your doctor will want to discuss with you. You may need additional tests or monitoring. This is a common situation, and your healthcare team will guide you through the next steps.")
	case RiskLow:
		b.WriteString(" The findings suggest lower concern. This is reassuring, but your doctor will still want to discuss the results and may recommend routine follow-up to make sure everything stays healthy.")
	default:
		b.WriteString(" Your doctor will review these results with you and explain what they mean for your specific situation. Every person is different, and your medical team knows your health history best.")
	}
}
