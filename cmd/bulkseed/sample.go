package main

import (
	"fmt"

	"github.com/poiesic/bulkseed/core"
)

type headline struct {
	title string
	url   string
}

var sampleHeadlines = []headline{
	{"istanbulda hava durumu", "http://istanbul.com.tr"},
	{"galatasaray da transfer", "http://galatasaray.com.tr"},
	{"şampiyonlar ligi kuraları", "http://deneme.com.tr"},
	{"ankarada kar yağışı bekleniyor", "http://ankara.com.tr"},
	{"izmirde hava sıcaklığı artıyor", "http://izmir.com.tr"},
	{"fenerbahçe deplasmanda kazandı", "http://fenerbahce.com.tr"},
	{"borsa güne yükselişle başladı", "http://ekonomi.com.tr"},
	{"yeni metro hattı hizmete açıldı", "http://istanbul.com.tr"},
	{"milli takım kadrosu açıklandı", "http://spor.com.tr"},
	{"hafta sonu hava yağmurlu olacak", "http://meteoroloji.com.tr"},
}

// sampleRecords generates count news records, cycling through the sample
// headlines. Every record gets a fresh id.
func sampleRecords(count int) ([]core.Record, error) {
	if count < 0 {
		return nil, fmt.Errorf("count cannot be negative, got %d", count)
	}

	records := make([]core.Record, 0, count)
	for i := range count {
		h := sampleHeadlines[i%len(sampleHeadlines)]
		record, err := core.NewNews(h.title, h.url).Record()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
