package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/example/xiaoyuanbao/internal/auth"
	"github.com/example/xiaoyuanbao/internal/config"
	"github.com/example/xiaoyuanbao/internal/datamodels/item"
	"github.com/example/xiaoyuanbao/internal/datamodels/user"
	"github.com/example/xiaoyuanbao/internal/logger"
	"github.com/example/xiaoyuanbao/internal/server"
	"github.com/example/xiaoyuanbao/internal/service"
)

type seedItem struct {
	Title       string
	Description string
	Price       float64
	Condition   string
	Category    string
	Type        item.Type
}

var seedItems = []seedItem{
	{"九成新 iPad Air", "去年买的，一直带壳贴膜使用，电池健康 95%", 2399, "9成新", "数码电子", item.TypeSale},
	{"高等数学同济第七版", "上下册一起出，有少量笔记，不影响阅读", 25, "8成新", "图书教材", item.TypeSale},
	{"迪卡侬帐篷出租", "双人帐篷，周末露营可租，押金面议", 30, "9成新", "运动户外", item.TypeRent},
	{"宿舍小冰箱", "毕业出，制冷正常，容量 50L，自提", 180, "7成新", "生活用品", item.TypeSale},
	{"全新未拆机械键盘", "抽奖抽到的，全新未拆封，红轴", 199, "全新", "数码电子", item.TypeSale},
	{"考研英语真题", "黄皮书 2015-2024，做过一半，答案完整", 40, "8成新", "图书教材", item.TypeSale},
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if cfg.Store.Driver != "mysql" {
		fmt.Println("❌ seed 只支持 mysql 存储")
		os.Exit(1)
	}
	cfg.RabbitMQ.URL = ""
	log := logger.New(cfg.Log)

	svc, cleanup, err := server.Bootstrap(cfg, log)
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	defer cleanup()

	ctx := context.Background()
	if err := run(ctx, cfg, svc); err != nil {
		fmt.Printf("❌ 初始化数据失败: %v\n", err)
		cleanup()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, svc *server.Services) error {
	fmt.Println("[1/4] 写入默认分类...")
	if err := svc.Categories.SeedDefaults(ctx); err != nil {
		return err
	}
	cats, err := svc.Categories.List(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]string, len(cats))
	for _, c := range cats {
		byName[c.Name] = c.ID
	}

	fmt.Println("[2/4] 创建学校...")
	school := &user.School{Name: "示例大学"}
	if err := svc.Deps.Users.CreateSchool(ctx, school); err != nil {
		return fmt.Errorf("create school: %w", err)
	}

	fmt.Println("[3/4] 创建用户...")
	users := []*user.User{
		{Nickname: "小卖家", Phone: "13900000001", SchoolID: &school.ID, CreditScore: 100, CreditLevel: "良好"},
		{Nickname: "小买家", Phone: "13900000002", SchoolID: &school.ID, CreditScore: 100, CreditLevel: "良好"},
	}
	for _, u := range users {
		if err := svc.Deps.Users.Create(ctx, u); err != nil {
			return fmt.Errorf("create user %s: %w", u.Phone, err)
		}
		token, err := auth.GenerateToken(&cfg.JWT, u.ID)
		if err != nil {
			return err
		}
		fmt.Printf("✅ %s (%s)\n   token: %s\n", u.Nickname, u.ID, token)
	}

	fmt.Println("[4/4] 发布物品...")
	seller := users[0]
	for _, s := range seedItems {
		it, err := svc.Catalog.Create(ctx, seller.ID, service.CreateItemInput{
			Title:       s.Title,
			Description: s.Description,
			Price:       s.Price,
			Images:      []string{"https://picsum.photos/seed/" + s.Category + "/600/600"},
			Condition:   s.Condition,
			CategoryID:  byName[s.Category],
			Location:    "图书馆门口",
			Type:        s.Type,
		})
		if err != nil {
			return fmt.Errorf("create item %s: %w", s.Title, err)
		}
		fmt.Printf("✅ %s ¥%.2f (%s)\n", it.Title, it.Price, it.ID)
	}
	return nil
}
